// Package stdio models the tagged variant that describes where a Command's
// standard input or standard output comes from or goes to.
package stdio

import (
	"errors"
	"os"
)

// Kind discriminates the cases of an Endpoint.
type Kind int

const (
	// InheritStdin binds the slot to the shell's own stdin.
	InheritStdin Kind = iota
	// InheritStdout binds the slot to the shell's own stdout.
	InheritStdout
	// InheritStderr binds the slot to the shell's own stderr.
	InheritStderr
	// Redirect binds the slot to a named file.
	Redirect
	// Pipe binds the slot to one end of an anonymous pipe.
	Pipe
)

func (k Kind) String() string {
	switch k {
	case InheritStdin:
		return "InheritStdin"
	case InheritStdout:
		return "InheritStdout"
	case InheritStderr:
		return "InheritStderr"
	case Redirect:
		return "Redirect"
	case Pipe:
		return "Pipe"
	default:
		return "Unknown"
	}
}

// ErrInvalidEndpoint is returned when an Endpoint is bound to a slot its Kind
// may never occupy (spec §3's stdin/stdout slot invariants). It is a
// programming-error condition: callers are expected to fail fast on it, not
// to recover and retry with different data.
var ErrInvalidEndpoint = errors.New("stdio: invalid endpoint for slot")

// Endpoint is a tagged value: exactly one of Path or File is meaningful,
// depending on Kind.
type Endpoint struct {
	Kind Kind
	Path string   // meaningful for Redirect
	File *os.File // meaningful for Pipe
}

// Stdin returns the endpoint that inherits the shell's controlling terminal
// stdin. This is the only Inherit* case the parser ever emits for a stdin
// slot.
func Stdin() Endpoint { return Endpoint{Kind: InheritStdin} }

// Stdout returns the endpoint that inherits the shell's controlling
// terminal stdout. This is the only Inherit* case the parser ever emits for
// a stdout slot.
func Stdout() Endpoint { return Endpoint{Kind: InheritStdout} }

// Stderr returns the endpoint that inherits the shell's controlling
// terminal stderr. The parser never emits this, and both ValidateStdin and
// ValidateStdout reject it, so no Command slot can hold it; a spawned
// command's stderr is the *os.File passed to command.Spawn.
func Stderr() Endpoint { return Endpoint{Kind: InheritStderr} }

// RedirectTo returns a Redirect endpoint naming path.
func RedirectTo(path string) Endpoint { return Endpoint{Kind: Redirect, Path: path} }

// PipeEnd returns a Pipe endpoint wrapping one end of an os.Pipe(). Only the
// pipeline launcher synthesizes these (spec §3); commands and the parser
// never construct one directly.
func PipeEnd(f *os.File) Endpoint { return Endpoint{Kind: Pipe, File: f} }

// ValidateStdin reports ErrInvalidEndpoint if e may never occupy a stdin
// slot (§3: a stdin slot may never carry InheritStdout or InheritStderr).
func ValidateStdin(e Endpoint) error {
	switch e.Kind {
	case InheritStdout, InheritStderr:
		return ErrInvalidEndpoint
	default:
		return nil
	}
}

// ValidateStdout reports ErrInvalidEndpoint if e may never occupy a stdout
// slot (§3: a stdout slot may never carry InheritStdin or InheritStderr).
func ValidateStdout(e Endpoint) error {
	switch e.Kind {
	case InheritStdin, InheritStderr:
		return ErrInvalidEndpoint
	default:
		return nil
	}
}
