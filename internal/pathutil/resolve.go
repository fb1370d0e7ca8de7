// Package pathutil provides path resolution shared by every command
// that takes a directory from the user.
package pathutil

import (
	"os"
	"path/filepath"
)

// ResolveAbsolutePath expands ~, makes the path absolute, and resolves
// symlinks in the portion of the path that exists. Components that do
// not exist yet are appended untouched, so a workspace inside a
// junction or symlinked home directory resolves consistently even
// before it is created. An empty path resolves to the working
// directory.
func ResolveAbsolutePath(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = home + path[1:]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	// Fast path: the whole thing exists.
	resolved, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		return resolved, nil
	}

	// Walk up to the deepest existing ancestor, resolve that, then
	// reattach the missing components.
	current := absPath
	var remainder []string

	for {
		if _, err := os.Stat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				resolved = current
			}
			for i := len(remainder) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, remainder[i])
			}
			return resolved, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return absPath, nil
		}
		remainder = append(remainder, filepath.Base(current))
		current = parent
	}
}
