// Package credentials loads the server's user table from a two-column
// CSV source and exposes a read-only lookup used by the authentication
// state machine.
package credentials

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// MaxFieldLength is the maximum length of a username or password field.
// Longer fields are truncated, matching the original fixed-size buffers
// (MAX_USERNAME / MAX_PASSWORD = 50, i.e. 49 usable characters).
const MaxFieldLength = 49

// Store is a read-only, immutable mapping of username to password.
// It is safe for concurrent use by any number of sessions once loaded.
type Store struct {
	byUser map[string]string
}

// Load reads a two-column CSV user file from path.
//
// Line format: "username,password". A trailing CR is tolerated. The
// line is split at its first comma, so everything after it (further
// commas included) is the password. Empty lines, lines without a
// comma, and lines with an empty username or password are skipped.
// When a username appears more than once, the first
// occurrence wins and later duplicates are ignored.
//
// Failure to open the source is returned wrapped with a stack trace;
// callers treat this as fatal at startup and abort the process with a
// diagnostic.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load credentials from %s", path)
	}
	defer f.Close()

	return LoadFrom(f)
}

// LoadFrom reads the user table from an already-open reader. Exposed
// separately from Load so callers (and tests) can supply an in-memory
// source without touching the filesystem.
func LoadFrom(r io.Reader) (*Store, error) {
	s := &Store{byUser: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		user, pass, ok := splitRecord(line)
		if !ok {
			continue
		}

		if _, exists := s.byUser[user]; exists {
			continue
		}
		s.byUser[user] = pass
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read credentials")
	}

	return s, nil
}

// splitRecord parses a single "username,password" line. It returns
// ok=false for malformed lines (missing comma, empty username, or
// empty password), which Load/LoadFrom silently skip.
func splitRecord(line string) (user, pass string, ok bool) {
	comma := strings.IndexByte(line, ',')
	if comma < 0 {
		return "", "", false
	}
	user = truncate(line[:comma])
	pass = truncate(line[comma+1:])
	if user == "" || pass == "" {
		return "", "", false
	}
	return user, pass, true
}

func truncate(field string) string {
	if len(field) > MaxFieldLength {
		return field[:MaxFieldLength]
	}
	return field
}

// Lookup reports whether username exists and returns its password.
func (s *Store) Lookup(username string) (password string, ok bool) {
	password, ok = s.byUser[username]
	return password, ok
}

// Exists reports whether username is a known user, without revealing
// the password.
func (s *Store) Exists(username string) bool {
	_, ok := s.byUser[username]
	return ok
}

// Verify reports whether username/password is an exact byte-for-byte
// match against the loaded table.
func (s *Store) Verify(username, password string) bool {
	stored, ok := s.byUser[username]
	if !ok {
		return false
	}
	return stored == password
}
