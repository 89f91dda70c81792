package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a resolved path falls outside the
// session's jail.
var ErrPathEscape = errors.New("path escapes the session root")

// resolveJailed resolves a client-supplied path against the session's
// jail, following symlinks, and rejects anything that escapes it.
//
// root is the canonical absolute path of the session's jail
// (root_dir); cwd is the canonical absolute path of the current
// directory, itself always root or a descendant of it; request is the
// raw argument from the client.
//
//  1. A leading "/" makes request jail-relative (root + request);
//     otherwise it's relative to cwd.
//  2. The candidate is canonicalized against the real filesystem:
//     existing components are resolved through filepath.EvalSymlinks;
//     the request's final component is allowed to be
//     missing (needed for STOR/RNTO destinations), but no intermediate
//     component may be.
//  3. The canonical result must equal root or have root+"/" as a
//     prefix; anything else is ErrPathEscape.
//
// resolveJailed never makes a filesystem call itself beyond what
// filepath.EvalSymlinks needs; it returns the jailed absolute path on
// the real filesystem, which callers then Stat/Open as appropriate.
func resolveJailed(root, cwd, request string) (string, error) {
	var candidate string
	if strings.HasPrefix(request, "/") {
		candidate = filepath.Join(root, request)
	} else {
		candidate = filepath.Join(cwd, request)
	}
	candidate = filepath.Clean(candidate)

	real, err := canonicalizeTolerant(root, candidate)
	if err != nil {
		return "", err
	}

	if real != root && !strings.HasPrefix(real, root+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return real, nil
}

// canonicalizeTolerant resolves candidate's existing components
// through the real filesystem (following symlinks), tolerating a
// missing final component so create/rename destinations can resolve.
// root bounds the walk: once a parent directory outside root is
// detected the candidate is rejected without touching the filesystem
// further, since nothing under it can ever be valid.
func canonicalizeTolerant(root, candidate string) (string, error) {
	real, err := filepath.EvalSymlinks(candidate)
	if err == nil {
		return real, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	// The full candidate doesn't exist; resolve its parent and
	// re-attach the final (not-yet-existing) component. This is the
	// STOR/RNTO/MKD case: the leaf may not exist, but every ancestor
	// must.
	parent := filepath.Dir(candidate)
	leaf := filepath.Base(candidate)

	realParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return "", os.ErrNotExist
		}
		return "", err
	}

	if realParent != root && !strings.HasPrefix(realParent, root+string(filepath.Separator)) {
		return "", ErrPathEscape
	}

	return filepath.Join(realParent, leaf), nil
}
