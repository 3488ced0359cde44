package cli

import (
	"context"
	"fmt"
	"strings"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/grpc"
)

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) Register(ctx context.Context) error {
	var req gs.RegisterRequest
	var err error
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"First name", &req.FirstName},
		{"Last name", &req.LastName},
		{"Email", &req.Email},
		{"Username", &req.Username},
	} {
		if *f.dst, err = a.ask(f.prompt); err != nil {
			return err
		}
	}
	if req.Password, err = GetPassword("Password", a.out); err != nil {
		return err
	}

	var resp *gs.AccountResponse
	err = a.call(ctx, func(ctx context.Context) error {
		resp, err = a.api.Register(ctx, &req)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s created. A verification code was sent to %s.\n", resp.Account.ID, resp.Account.Email)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	code, err := a.ask("Verification code")
	if err != nil {
		return err
	}

	var resp *gs.AuthResponse
	err = a.call(ctx, func(ctx context.Context) error {
		resp, err = a.api.VerifyEmail(ctx, &gs.VerifyEmailRequest{Email: email, Code: code})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email verified, you are logged in.")
	return a.remember(ctx, resp)
}

func (a *App) Resend(ctx context.Context) error {
	return a.requestCode(ctx, a.api.RequestEmailVerification, "A new verification code was sent.")
}

func (a *App) Forgot(ctx context.Context) error {
	return a.requestCode(ctx, a.api.RequestPasswordReset, "A password reset code was sent.")
}

type codeRequest func(ctx context.Context, in *gs.IdentifierRequest, opts ...grpc.CallOption) (*gs.Empty, error)

func (a *App) requestCode(ctx context.Context, send codeRequest, done string) error {
	id, err := a.ask("Email or username")
	if err != nil {
		return err
	}
	err = a.call(ctx, func(ctx context.Context) error {
		_, err := send(ctx, &gs.IdentifierRequest{Identifier: id})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, done)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	id, err := a.ask("Email or username")
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}

	var resp *gs.AuthResponse
	err = a.call(ctx, func(ctx context.Context) error {
		resp, err = a.api.Login(ctx, &gs.LoginRequest{Identifier: id, Password: password})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Login successful.")
	return a.remember(ctx, resp)
}

func (a *App) Reset(ctx context.Context) error {
	id, err := a.ask("Email or username")
	if err != nil {
		return err
	}
	code, err := a.ask("Reset code")
	if err != nil {
		return err
	}
	password, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}

	var resp *gs.AuthResponse
	err = a.call(ctx, func(ctx context.Context) error {
		resp, err = a.api.ResetPassword(ctx, &gs.ResetPasswordRequest{Identifier: id, Code: code, NewPassword: password})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed. Other sessions were signed out.")
	return a.remember(ctx, resp)
}

func (a *App) WhoAmI(ctx context.Context) error {
	var resp *gs.AccountResponse
	err := a.authorized(ctx, func(ctx context.Context) error {
		var err error
		resp, err = a.api.GetAccount(ctx)
		return err
	})
	if err != nil {
		return err
	}
	printAccount(a, resp.Account)
	return nil
}

func (a *App) Edit(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	var p models.AccountPatch
	var err error
	for _, f := range []struct {
		prompt string
		dst    **string
	}{
		{"First name", &p.FirstName},
		{"Last name", &p.LastName},
		{"Email", &p.Email},
		{"Username", &p.Username},
	} {
		if *f.dst, err = GetOptionalText(a.reader, f.prompt, a.out); err != nil {
			return err
		}
	}
	pw, err := GetPassword("New password (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if pw != "" {
		p.Password = &pw
	}
	if p.Empty() {
		fmt.Fprintln(a.out, "Nothing to change.")
		return nil
	}

	var resp *gs.AccountResponse
	err = a.authorized(ctx, func(ctx context.Context) error {
		resp, err = a.api.Patch(ctx, &gs.PatchRequest{AccountPatch: p})
		return err
	})
	if err != nil {
		return err
	}
	if !resp.Account.EmailVerified {
		fmt.Fprintln(a.out, "Email changed. Use verify with the code sent to the new address.")
	}
	printAccount(a, resp.Account)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Access token renewed, valid until %s.\n", a.session.ExpiresAt.Local().Format("15:04:05"))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.authorized(ctx, func(ctx context.Context) error {
		_, err := a.api.LogoutSession(ctx, &gs.SessionRequest{RefreshToken: a.session.RefreshToken})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return a.forget(ctx)
}

func (a *App) LogoutAll(ctx context.Context) error {
	err := a.authorized(ctx, func(ctx context.Context) error {
		_, err := a.api.Logout(ctx)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All sessions closed.")
	return a.forget(ctx)
}

func (a *App) Delete(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	answer, err := a.ask("Type yes to delete your account permanently")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	err = a.authorized(ctx, func(ctx context.Context) error {
		_, err := a.api.DeleteAccount(ctx)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account deleted.")
	return a.forget(ctx)
}

func printAccount(a *App, v *models.AccountView) {
	fmt.Fprintf(a.out, "id:       %s\n", v.ID)
	fmt.Fprintf(a.out, "name:     %s %s\n", v.FirstName, v.LastName)
	fmt.Fprintf(a.out, "username: %s\n", v.Username)
	fmt.Fprintf(a.out, "email:    %s (verified: %t)\n", v.Email, v.EmailVerified)
	fmt.Fprintf(a.out, "status:   %s\n", v.Status)
	fmt.Fprintf(a.out, "roles:    %s\n", strings.Join(v.Roles, ", "))
}
