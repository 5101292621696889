// Package parser translates a single input line into a sequence of
// command.Command values plus a background flag (spec §4.1). It never
// touches I/O, file descriptors, or processes — its only job is turning
// text into the data the pipeline launcher needs.
//
// Grammar (spec §4.1):
//
//	pipeline  := command ("|" command)* ("&")?
//	command   := IDENT ARG* ("<" PATH)? (">" PATH)?
//	IDENT     := one or more alphabetic characters
//	ARG       := any run of non-space, non-'&', non-'<', non-'>', non-'|'
//	PATH      := for '<': non-space, non-'>', non-'|'
//	             for '>': non-space, non-'|'
//
// This is the same grammar original_source/src/command.rs's nom parser
// (parse_command/parse_pipeline) implements; this package is a hand-rolled
// recursive-descent reading of the same shape.
package parser

import (
	"strings"
	"unicode"

	"github.com/forksh/forksh/internal/command"
	"github.com/forksh/forksh/internal/stdio"
)

// Parse translates line into an ordered list of commands plus a background
// flag. It rejects empty input and input consisting only of whitespace by
// returning a *ParseError, per spec §4.1.
func Parse(line string) ([]*command.Command, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, false, &ParseError{Input: line, Reason: "empty input"}
	}

	toks := tokenize(trimmed)
	if len(toks) == 0 {
		return nil, false, &ParseError{Input: line, Reason: "empty input"}
	}

	var cmds []*command.Command
	pos := 0
	for {
		cmd, next, err := parseCommand(toks, pos)
		if err != nil {
			return nil, false, err
		}
		cmds = append(cmds, cmd)
		pos = next

		if pos < len(toks) && toks[pos] == "|" {
			pos++
			continue
		}
		break
	}

	background := false
	if pos < len(toks) && toks[pos] == "&" {
		background = true
		pos++
	}

	if pos != len(toks) {
		return nil, false, &ParseError{Input: line, Reason: "trailing input after pipeline"}
	}

	return cmds, background, nil
}

// tokenize splits line into whitespace-delimited tokens, additionally
// splitting out each of |, <, >, & as its own one-character token even when
// not surrounded by whitespace (so "ls|wc" tokenizes the same as
// "ls | wc").
func tokenize(line string) []string {
	var toks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isMetaRune(r):
			flush()
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func isMetaRune(r rune) bool {
	return r == '|' || r == '<' || r == '>' || r == '&'
}

func isMeta(tok string) bool {
	return tok == "|" || tok == "<" || tok == ">" || tok == "&"
}

func isIdent(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// parseCommand parses a single `command` production starting at pos,
// returning the constructed Command and the position just past it.
func parseCommand(toks []string, pos int) (*command.Command, int, error) {
	if pos >= len(toks) || !isIdent(toks[pos]) {
		return nil, pos, &ParseError{Input: strings.Join(toks, " "), Reason: "expected a program name"}
	}

	cmd, err := command.New(toks[pos])
	if err != nil {
		return nil, pos, err
	}
	pos++

	for pos < len(toks) && !isMeta(toks[pos]) {
		if _, err := cmd.Arg(toks[pos]); err != nil {
			return nil, pos, err
		}
		pos++
	}

	if pos < len(toks) && toks[pos] == "<" {
		pos++
		if pos >= len(toks) || isMeta(toks[pos]) {
			return nil, pos, &ParseError{Input: strings.Join(toks, " "), Reason: "expected a path after '<'"}
		}
		if err := cmd.SetStdin(stdio.RedirectTo(toks[pos])); err != nil {
			return nil, pos, err
		}
		pos++
	}

	if pos < len(toks) && toks[pos] == ">" {
		pos++
		if pos >= len(toks) || isMeta(toks[pos]) {
			return nil, pos, &ParseError{Input: strings.Join(toks, " "), Reason: "expected a path after '>'"}
		}
		if err := cmd.SetStdout(stdio.RedirectTo(toks[pos])); err != nil {
			return nil, pos, err
		}
		pos++
	}

	// A '<' or '>' surviving here is either a duplicate redirection or one
	// presented out of the from-then-to order the grammar requires — both
	// are parse errors (spec §4.1: "Duplicate redirections are a parse
	// error").
	if pos < len(toks) && (toks[pos] == "<" || toks[pos] == ">") {
		return nil, pos, &ParseError{Input: strings.Join(toks, " "), Reason: "duplicate or misordered redirection"}
	}

	return cmd, pos, nil
}
