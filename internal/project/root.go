package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ManifestName is the project manifest Load searches for.
const ManifestName = "cschema.toml"

// FindManifest returns the cschema.toml closest to dir, looking in dir and
// then in each parent. A directory that happens to carry the manifest name
// is skipped. ok is false when the filesystem root holds none either.
func FindManifest(dir string) (path string, ok bool, err error) {
	if dir == "" {
		dir = "."
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return "", false, fmt.Errorf("project: %w", err)
	}
	for {
		path = filepath.Join(dir, ManifestName)
		info, statErr := os.Stat(path)
		switch {
		case statErr == nil && !info.IsDir():
			return path, true, nil
		case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
			return "", false, fmt.Errorf("project: looking for %s: %w", ManifestName, statErr)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}
