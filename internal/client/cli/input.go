package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for golang.org/x/term.
// In tests you can replace them with stubs to avoid touching the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a password prompt to w and reads a password from the
// user's terminal without echo. When stdin is not a terminal (piped input)
// the password is read as a plain line from reader.
func GetPassword(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return GetSimpleText(reader, prompt, w)
	}

	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Confirm asks a yes/no question. Only "y" and "yes" count as yes.
func Confirm(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	answer, err := GetSimpleText(reader, prompt+" [y/N]", w)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
