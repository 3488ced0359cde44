// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the local session store and the gRPC client into a
// small REPL. The current session survives restarts: tokens are kept in a
// sqlite file and the access token is refreshed transparently once it
// expires.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
