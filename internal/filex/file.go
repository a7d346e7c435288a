// Package filex contains filesystem helpers for the local data directory.
// Everything walletvault persists is private to the owning user, so the
// helpers here create directories 0700 and files 0600.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDataDir creates (if needed) a subdirectory of the current working
// directory with owner-only permissions and returns its absolute path.
func EnsureDataDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// RestrictToOwner tightens permissions on an existing file to 0600.
// SQLite creates the database file itself, so this runs after open.
func RestrictToOwner(path string) error {
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}
