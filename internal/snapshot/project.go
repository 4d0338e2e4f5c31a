package snapshot

import (
	"os"
	"path/filepath"
)

// vcsMarker is the directory that identifies a project root
const vcsMarker = ".git"

// FindProjectRoot walks upward from dir to the nearest directory containing
// a .git entry. It returns "" when dir is empty or no ancestor has one.
func FindProjectRoot(dir string) string {
	return findProjectRoot(dir, markerExists)
}

func findProjectRoot(dir string, exists func(path string) bool) string {
	if dir == "" {
		return ""
	}

	current := filepath.Clean(dir)
	for {
		if exists(filepath.Join(current, vcsMarker)) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func markerExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
