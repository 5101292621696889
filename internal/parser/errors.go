package parser

import "fmt"

// ParseError reports that an input line does not conform to the grammar of
// spec §4.1 — empty input, a trailing `|`, a duplicate redirection, or any
// other structural mismatch.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: %s: %q", e.Reason, e.Input)
}
