package video

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("video not found")

// Locator resolves a bare filename against an ordered list of directories.
type Locator struct {
	dirs []string
}

func NewLocator(dirs ...string) *Locator {
	return &Locator{dirs: dirs}
}

func (l *Locator) Dirs() []string {
	return append([]string(nil), l.dirs...)
}

// Locate returns the first existing regular file named filename.
func (l *Locator) Locate(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", fmt.Errorf("%w: invalid filename %q", ErrNotFound, filename)
	}

	for _, dir := range l.dirs {
		candidate := filepath.Join(dir, filename)
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return candidate, nil
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, filename)
}
