package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const tempPattern = ".oneup-tmp-*"

// WriteFileAtomic replaces path with data: temp file in the same directory, fsync, rename.
// The original is left untouched and the temp file removed on any error, including ctx
// being cancelled before the rename. The file mode of the original is kept. Symlinks are
// followed so the link itself survives.
func WriteFileAtomic(ctx context.Context, path string, data []byte) error {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnwritableTarget, path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnwritableTarget, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(resolved), tempPattern)
	if err != nil {
		return fmt.Errorf("%w: %s: create temp: %w", ErrUnwritableTarget, path, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: %s: write temp: %w", ErrUnwritableTarget, path, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("%w: %s: chmod temp: %w", ErrUnwritableTarget, path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %s: fsync: %w", ErrUnwritableTarget, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: close temp: %w", ErrUnwritableTarget, path, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnwritableTarget, path, err)
	}
	if err := os.Rename(tmpName, resolved); err != nil {
		return fmt.Errorf("%w: %s: rename: %w", ErrUnwritableTarget, path, err)
	}
	success = true
	return nil
}
