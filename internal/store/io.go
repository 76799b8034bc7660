package store

import (
	"errors"
	"os"
	"path/filepath"
)

// writeFileAtomic writes via a temp file then rename, so a crash mid-write
// never leaves a truncated pairing file behind.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readFile reads path; a missing file maps to ok=false rather than an error.
func readFile(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// ensureDir creates the store directory with owner-only permissions.
func ensureDir(dir string) error {
	return os.MkdirAll(filepath.Clean(dir), 0o700)
}
