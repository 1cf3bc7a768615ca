package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PartPath is where a download is staged before being renamed into place.
func PartPath(finalPath string) string {
	return finalPath + ".part"
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(filepath.Clean(strings.TrimSpace(path)))
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var ErrNotRegularFile = errors.New("not a regular file")

// FileExists reports whether path names a regular file. Anything else at
// path (a directory, a device) is an error.
func FileExists(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !fi.Mode().IsRegular() {
		return false, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	return true, nil
}
