package server

import (
	"strings"
	"unicode"
)

// command is a parsed control-line: a verb and its raw argument string.
type command struct {
	verb string
	arg  string
}

// parseCommand splits a single control line into a verb and argument.
// The verb is upper-cased; the argument is everything after the first
// run of whitespace, left and right trimmed, with no further
// interpretation (paths, usernames, and PORT's comma-separated tuple
// are all handled by the caller). A line with no argument yields an
// empty arg. Leading/trailing whitespace on the whole line is ignored.
//
// parseCommand never fails: an empty or whitespace-only line parses to
// a command with an empty verb, which handlers treat as a syntax
// error (500).
func parseCommand(line string) command {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}
	}

	verb, arg := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		verb, arg = line[:i], line[i:]
	}
	return command{
		verb: strings.ToUpper(verb),
		arg:  strings.TrimSpace(arg),
	}
}
