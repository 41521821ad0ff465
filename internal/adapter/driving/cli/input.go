package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Test seams for terminal access.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// readLine prints prompt to w and reads one trimmed line. A final line
// without a newline is returned; EOF with nothing read is io.EOF.
func readLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if prompt != "" {
		if _, err := fmt.Fprint(w, prompt); err != nil {
			return "", err
		}
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

// readSecret reads a secret without echo when fd is a terminal, otherwise
// as a plain line from reader so piped input works.
func readSecret(reader *bufio.Reader, w io.Writer, fd int, prompt string) (string, error) {
	if !isTerminal(fd) {
		return readLine(reader, w, prompt)
	}
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	secret, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
