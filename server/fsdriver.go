package server

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"goftpd/internal/credentials"
)

// FSDriver implements Driver against the local filesystem, jailing
// every session inside <serverRoot>/<username>. It is the only Driver
// implementation this package ships.
//
// Grounded on gonzalop-ftp/server/driver_fs.go's os.Root-based jail,
// narrowed to credential-store-backed authentication in place of the
// teacher's pluggable Authenticator hook.
type FSDriver struct {
	serverRoot string // canonical absolute path, the coordinator's root
	creds      *credentials.Store
}

// NewFSDriver creates a driver rooted at serverRoot, authenticating
// against creds. serverRoot must exist and be a directory.
func NewFSDriver(serverRoot string, creds *credentials.Store) (*FSDriver, error) {
	info, err := os.Stat(serverRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "NewFSDriver", Path: serverRoot, Err: os.ErrInvalid}
	}

	real, err := filepath.EvalSymlinks(serverRoot)
	if err != nil {
		return nil, err
	}
	real, err = filepath.Abs(real)
	if err != nil {
		return nil, err
	}

	return &FSDriver{serverRoot: real, creds: creds}, nil
}

// UserExists reports whether username is in the credential store.
func (d *FSDriver) UserExists(username string) bool {
	return d.creds.Exists(username)
}

// Authenticate verifies username/password, creates the user's jail
// directory on first login, and returns a ClientContext rooted there.
func (d *FSDriver) Authenticate(username, password string) (ClientContext, error) {
	if !d.creds.Verify(username, password) {
		return nil, os.ErrPermission
	}

	jailPath := filepath.Join(d.serverRoot, username)
	if err := os.Mkdir(jailPath, 0777); err != nil && !os.IsExist(err) {
		return nil, err
	}

	real, err := filepath.EvalSymlinks(jailPath)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(real)
	if err != nil {
		return nil, err
	}

	return &fsContext{
		root:     root,
		rootPath: real,
		cwd:      real,
		username: username,
	}, nil
}

// fsContext implements ClientContext for one user's jailed subtree.
// All paths are resolved through resolveJailed (the Path Sandbox,
// §4.2) before touching the filesystem.
type fsContext struct {
	root     *os.Root
	rootPath string
	cwd      string
	username string
}

func (c *fsContext) Close() error {
	return c.root.Close()
}

// relative converts a real, jail-confined absolute path into the
// relative form os.Root's methods expect.
func (c *fsContext) relative(real string) string {
	rel, err := filepath.Rel(c.rootPath, real)
	if err != nil || rel == "." {
		return "."
	}
	return rel
}

func (c *fsContext) resolve(path string) (string, error) {
	return resolveJailed(c.rootPath, c.cwd, path)
}

func (c *fsContext) ChangeDir(path string) error {
	real, err := c.resolve(path)
	if err != nil {
		return err
	}

	info, err := c.root.Stat(c.relative(real))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "CWD", Path: path, Err: os.ErrInvalid}
	}

	c.cwd = real
	return nil
}

// GetWd returns the current directory as a virtual path rooted at
// "/" (the jail root), e.g. "/" or "/sub/dir".
func (c *fsContext) GetWd() string {
	rel := c.relative(c.cwd)
	if rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

func (c *fsContext) MakeDir(path string) error {
	real, err := c.resolve(path)
	if err != nil {
		return err
	}
	return c.root.Mkdir(c.relative(real), 0755)
}

func (c *fsContext) RemoveDir(path string) error {
	real, err := c.resolve(path)
	if err != nil {
		return err
	}
	return c.root.Remove(c.relative(real))
}

func (c *fsContext) DeleteFile(path string) error {
	real, err := c.resolve(path)
	if err != nil {
		return err
	}
	return c.root.Remove(c.relative(real))
}

// Rename moves or renames a file or directory. os.Root has no Rename
// method (as of this Go toolchain), so both endpoints are resolved
// through the jail first and then renamed by absolute path.
func (c *fsContext) Rename(fromPath, toPath string) error {
	src, err := c.resolve(fromPath)
	if err != nil {
		return err
	}
	dst, err := c.resolve(toPath)
	if err != nil {
		return err
	}
	return os.Rename(src, dst)
}

func (c *fsContext) ListDir(path string) ([]os.FileInfo, error) {
	real, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := c.root.Open(c.relative(real))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err == nil {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (c *fsContext) OpenFile(path string, flag int) (io.ReadWriteCloser, error) {
	real, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	return c.root.OpenFile(c.relative(real), flag, 0644)
}

func (c *fsContext) GetFileInfo(path string) (os.FileInfo, error) {
	real, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	return c.root.Stat(c.relative(real))
}

func (c *fsContext) Exists(path string) bool {
	real, err := c.resolve(path)
	if err != nil {
		return false
	}
	_, err = c.root.Stat(c.relative(real))
	return err == nil
}
