package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter blocks on an operator acknowledgement.
type Prompter interface {
	Confirm(message string) error
}

// ConsolePrompter asks on out and waits for Enter on in. With AutoConfirm
// set it prints the message and returns immediately.
type ConsolePrompter struct {
	in          *bufio.Reader
	out         io.Writer
	AutoConfirm bool
}

// NewConsolePrompter creates a prompter reading from in and writing to out.
func NewConsolePrompter(in io.Reader, out io.Writer, autoConfirm bool) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewReader(in), out: out, AutoConfirm: autoConfirm}
}

func (p *ConsolePrompter) Confirm(message string) error {
	fmt.Fprintf(p.out, "\n%s\n", message)
	if p.AutoConfirm {
		fmt.Fprintln(p.out, "(auto-confirmed)")
		return nil
	}
	fmt.Fprint(p.out, "Press Enter to continue...")
	_, err := p.in.ReadString('\n')
	if err == io.EOF {
		return nil
	}
	return err
}

// Banner prints a framed heading the way the console reports do.
func Banner(out io.Writer, title string) {
	sep := strings.Repeat("=", 60)
	fmt.Fprintf(out, "\n%s\n%s\n%s\n", sep, title, sep)
}
