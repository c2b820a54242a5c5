// Package cmds holds the CLI commands as plain structs. Every command is
// validated before it's executed, and the cobra layer in cmd only fills the
// fields.
package cmds

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/lainio/err2/try"
)

const seedLength = 32

var ErrInvalid = errors.New("invalid command, check arguments")

func ValidateSeed(seed string) error {
	if seed != "" && len(seed) != seedLength {
		return fmt.Errorf("%w: seed must be empty or length of %d", ErrInvalid, seedLength)
	}
	return nil
}

// ValidateEndpoint checks that s is an absolute URL.
func ValidateEndpoint(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q isn't an absolute URL", ErrInvalid, s)
	}
	return nil
}

// Fprintln is fmt.Fprintln but it allows writer to be nil. Note! it throws an
// error.
func Fprintln(w io.Writer, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintln(w, a...))
	}
}

// Fprintf is fmt.Fprintf but it allows writer to be nil. Note! it throws an
// error.
func Fprintf(w io.Writer, format string, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintf(w, format, a...))
	}
}
