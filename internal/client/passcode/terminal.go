package passcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// DefaultPrompt is shown when soliciting a passcode.
const DefaultPrompt = "Please enter your passcode here: "

// TerminalProvider reads the passcode from the operator's terminal without
// echo. When input is not a terminal it falls back to reading one line.
type TerminalProvider struct {
	Prompt string
	in     *os.File
	lines  *bufio.Reader
	out    io.Writer
}

// NewTerminalProvider reads from in, using lines for the non-terminal
// fallback so buffered input stays shared with the caller.
func NewTerminalProvider(in *os.File, lines *bufio.Reader, out io.Writer) *TerminalProvider {
	if lines == nil {
		lines = bufio.NewReader(in)
	}
	return &TerminalProvider{Prompt: DefaultPrompt, in: in, lines: lines, out: out}
}

// Solicit blocks until the operator answers.
func (p *TerminalProvider) Solicit(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, p.Prompt)

	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read passcode: %w", err)
		}
		return string(b), nil
	}

	line, err := p.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", fmt.Errorf("read passcode: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
