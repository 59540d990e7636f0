// Package termx holds the interactive prompts shared by the barbot REPL and
// barbotctl: line answers from an input stream and passwords read from the
// terminal without echo.
package termx

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/barbot/internal/common"
	"golang.org/x/term"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// PasswordReader reads a secret from the terminal identified by fd.
type PasswordReader func(fd int) ([]byte, error)

type Prompter struct {
	in           *bufio.Reader
	out          io.Writer
	fd           int
	readPassword PasswordReader
}

// NewPrompter reads answers from in and passwords from stdin's terminal.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:           bufio.NewReader(in),
		out:          out,
		fd:           int(os.Stdin.Fd()),
		readPassword: term.ReadPassword,
	}
}

// WithPasswordReader swaps the terminal reader, e.g. for scripted input.
func (p *Prompter) WithPasswordReader(r PasswordReader) *Prompter {
	p.readPassword = r
	return p
}

func (p *Prompter) Out() io.Writer { return p.out }

// Line prints prompt verbatim and returns the next input line, trimmed.
// A final line without a newline is still returned; io.EOF comes back
// only once nothing is left.
func (p *Prompter) Line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask shows label on its own line followed by a "> " marker.
func (p *Prompter) Ask(label string) (string, error) {
	return p.Line(label + "\n> ")
}

// Password prints prompt and reads a password without echo. The caller
// wipes the returned slice.
func (p *Prompter) Password(prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return nil, err
	}
	pw, err := p.readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// NewPassword asks twice and returns the password once both entries match.
// The confirmation is wiped before returning, and so is the first entry on
// any failure.
func (p *Prompter) NewPassword() ([]byte, error) {
	pw, err := p.Password("Enter password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := p.Password("Repeat password: ")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		common.WipeByteArray(pw)
		return nil, ErrPasswordMismatch
	}
	return pw, nil
}
