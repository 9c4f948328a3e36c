package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/docsum/internal/client/client"
)

type access int

const (
	accessAny access = iota
	// accessGuest commands only make sense while signed out.
	accessGuest
	// accessUser commands need a session.
	accessUser
)

// command is one REPL verb. run receives the whitespace-separated arguments
// that followed the verb.
type command struct {
	name    string
	usage   string
	help    string
	access  access
	minArgs int
	run     func(ctx context.Context, args []string) error
}

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	commands() []command
}

// runREPL starts a simple read–eval–print loop for the docsum CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to the matching entry of a.commands(). Commands that need a
// session are refused while signed out and vice versa. The loop exits on EOF
// or when the user types "exit" or "quit".
//
// Errors returned by command handlers are printed and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "docsum%s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]
		loggedIn := a.isLoggedIn()

		switch name {
		case "help":
			printHelp(w, a.commands(), loggedIn)
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		cmd, ok := lookup(a.commands(), name)
		switch {
		case !ok:
			fmt.Fprintln(w, "Unknown command:", name)
		case cmd.access == accessUser && !loggedIn:
			fmt.Fprintln(w, "Please sign in first (login, register or google).")
		case cmd.access == accessGuest && loggedIn:
			fmt.Fprintln(w, "Already signed in. Use logout first.")
		case len(args) < cmd.minArgs:
			fmt.Fprintln(w, "Usage:", cmd.usage)
		default:
			if err := cmd.run(ctx, args); err != nil {
				fmt.Fprintln(w, "Error:", errorText(err))
			}
		}
	}
}

func lookup(cmds []command, name string) (command, bool) {
	for _, c := range cmds {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printHelp(w io.Writer, cmds []command, loggedIn bool) {
	fmt.Fprintln(w, "Available commands:")
	for _, c := range cmds {
		if c.access == accessUser && !loggedIn || c.access == accessGuest && loggedIn {
			continue
		}
		fmt.Fprintf(w, "  %-32s %s\n", c.usage, c.help)
	}
	fmt.Fprintf(w, "  %-32s %s\n", "exit | quit", "leave the program")
}

// errorText picks the message worth showing for err. Backend errors carry
// their own user-facing text.
func errorText(err error) string {
	if apiErr, ok := client.AsAPIError(err); ok {
		return apiErr.Text()
	}
	return err.Error()
}
