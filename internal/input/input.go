// Package input contains readers used to get parser input text from CLI or
// other sources of input, one line of whitespace-separated tokens at a time.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DirectTokenReader reads token lines from any generic input stream
// directly. It can be used generically with any io.Reader but does not
// sanitize the input of control and escape sequences.
//
// DirectTokenReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectTokenReader struct {
	r             *bufio.Reader
	blanksAllowed bool
}

// InteractiveTokenReader reads token lines from stdin using a Go
// implementation of the GNU Readline library. This keeps input clear of all
// typing and editing escape sequences and enables the use of input history.
// This should in general probably only be used when directly connecting to a
// TTY for input, which is what the parser binary's --repl mode is for.
//
// InteractiveTokenReader should not be used directly; instead, create one
// with [NewInteractiveReader].
type InteractiveTokenReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader creates a new DirectTokenReader and initializes a buffered
// reader on the provided reader. It holds no resources of its own, so its
// Close does nothing.
func NewDirectReader(r io.Reader) *DirectTokenReader {
	return &DirectTokenReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates a new InteractiveTokenReader and initializes
// readline. The returned reader must have Close called on it before
// disposal to properly teardown readline resources.
func NewInteractiveReader() (*InteractiveTokenReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "lrk> ",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveTokenReader{
		rl:     rl,
		prompt: "lrk> ",
	}, nil
}

// Close cleans up resources associated with the DirectTokenReader.
func (dtr *DirectTokenReader) Close() error {
	return nil
}

// Close cleans up readline resources associated with the
// InteractiveTokenReader.
func (itr *InteractiveTokenReader) Close() error {
	return itr.rl.Close()
}

// ReadLine reads the next line of input. Unless blank lines are allowed (see
// AllowBlank), the returned string will only be empty if there is an error
// reading input, otherwise this function blocks until a line containing
// non-space characters is read. With blank lines allowed, a blank line is
// returned as an empty string with a nil error.
//
// If at end of input, the returned string will be empty and error will be
// io.EOF. If any other error occurs, the returned string will be empty and
// error will be that error.
func (dtr *DirectTokenReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dtr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && dtr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// ReadLine reads the next line of input from stdin. Unless blank lines are
// allowed (see AllowBlank), the returned string will only be empty if there
// is an error, otherwise this function blocks until a line consisting of more
// than empty or whitespace-only input is read. With blank lines allowed, a
// blank line is returned as an empty string with a nil error.
//
// If at end of input, the returned string will be empty and error will be
// io.EOF. If any other error occurs, the returned string will be empty and
// error will be that error.
func (itr *InteractiveTokenReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = itr.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && itr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// AllowBlank sets whether blank lines are allowed. By default they are not.
func (dtr *DirectTokenReader) AllowBlank(allow bool) {
	dtr.blanksAllowed = allow
}

// AllowBlank sets whether blank lines are allowed. By default they are not.
func (itr *InteractiveTokenReader) AllowBlank(allow bool) {
	itr.blanksAllowed = allow
}

// SetPrompt updates the prompt to the given text.
func (itr *InteractiveTokenReader) SetPrompt(p string) {
	itr.rl.SetPrompt(p)
	itr.prompt = p
}

// GetPrompt gets the current prompt.
func (itr *InteractiveTokenReader) GetPrompt() string {
	return itr.prompt
}
