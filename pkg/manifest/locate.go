package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// autoDetect lists the manifests probed when no target is given, in patch order.
var autoDetect = []string{"package.json", "Cargo.toml"}

// Locate returns the targets to patch. Explicit paths are used in the given order,
// relative ones resolved against dir, and every one of them must exist; all missing
// paths are reported together. Without explicit paths the well-known manifests in
// dir are probed, and finding none is not an error.
func Locate(dir string, explicit []string) ([]Target, error) {
	if len(explicit) == 0 {
		var targets []Target
		for _, name := range autoDetect {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				targets = append(targets, Target{Path: path, Kind: KindFor(name)})
			}
		}
		return targets, nil
	}

	var (
		targets []Target
		errs    []error
		seen    = make(map[string]bool)
	)
	for _, p := range explicit {
		path := p
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		path = filepath.Clean(path)
		if seen[path] {
			continue
		}
		seen[path] = true

		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			errs = append(errs, fmt.Errorf("%w: %s", ErrTargetNotFound, p))
			continue
		case err != nil:
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrUnreadableTarget, p, err))
			continue
		case info.IsDir():
			errs = append(errs, fmt.Errorf("%w: %s is a directory", ErrTargetNotFound, p))
			continue
		}
		targets = append(targets, Target{Path: path, Kind: KindFor(path)})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return targets, nil
}
