package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Login(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Edit(ctx context.Context) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
	Delete(ctx context.Context) error
}

const (
	guestHelp  = "Available commands: register, verify, resend, login, forgot, reset, exit"
	memberHelp = "Available commands: whoami, edit, verify, resend, refresh, logout, logout-all, delete, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// Command failures are reported to out and the loop continues. The loop
// exits on EOF, on "exit" or "quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "gophauth [%s]> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var cmdErr error
		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, memberHelp)
			} else {
				fmt.Fprintln(out, guestHelp)
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "verify":
			cmdErr = a.Verify(ctx)
		case "resend":
			cmdErr = a.Resend(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "forgot":
			cmdErr = a.Forgot(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "edit":
			cmdErr = a.Edit(ctx)
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "logout-all":
			cmdErr = a.LogoutAll(ctx)
		case "delete":
			cmdErr = a.Delete(ctx)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(out, "error:", describe(cmdErr))
		}
	}
}
