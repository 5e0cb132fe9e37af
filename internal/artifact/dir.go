package artifact

import (
	"context"
	"os"
	"path/filepath"

	"github.com/schemalens/schemalens/internal/errs"
)

// Dir is a Store that writes artifacts to a local directory. Keys may
// contain slashes; intermediate directories are created on demand.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Put writes the artifact to root/key. The content type is ignored; the key
// carries the extension.
func (d *Dir) Put(_ context.Context, key, _ string, data []byte) error {
	path := filepath.Join(d.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "create artifact directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "write artifact", err)
	}
	return nil
}

// Path returns the on-disk location an artifact key maps to.
func (d *Dir) Path(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}
