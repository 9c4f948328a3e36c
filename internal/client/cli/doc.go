// Package cli provides the interactive docsum command-line client.
//
// It wires configuration, local storage, the session store, the API gateway
// and the document and chat services, then runs a REPL. Signed out, the REPL
// offers register, login and google; signed in, it offers document, search
// and chat commands. A background watcher picks up sign-ins and sign-outs made
// by other docsum processes sharing the same storage file.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
