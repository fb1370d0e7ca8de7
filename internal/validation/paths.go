// Package validation provides input validation utilities for FSDrill.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateEntryName validates a bare file or directory name (not a full
// path). Virtual disk entries and generated task files are keyed by flat
// names, so anything that could change the directory a name resolves to
// is rejected before it reaches a filepath.Join.
//
// Returns an error if the name:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is the literal ".."
//   - Contains null bytes
func ValidateEntryName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	// Check for null bytes
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("name contains null byte: %s", name)
	}

	// Reject path separators (both Unix and Windows style)
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, '\\') {
		return fmt.Errorf("name cannot contain path separators: %s", name)
	}

	// Reject the literal ".." to prevent traversal. Separators are
	// already rejected above, so names like "foo..bar.txt" stay legal.
	if name == ".." {
		return fmt.Errorf("name cannot be '..': %s", name)
	}

	return nil
}

// ValidatePathInDirectory validates that a path, when resolved, stays
// within baseDir. Run directories and the files inside them must never
// escape the configured workspace.
//
// Both path and baseDir are cleaned and made absolute before comparison.
// Returns an error if the resolved path is not within baseDir.
//
// Example:
//
//	ValidatePathInDirectory("../../etc/passwd", "/tmp/workspace") // Error: escapes base dir
//	ValidatePathInDirectory("run-1a2b/file.txt", "/tmp/workspace") // OK: within base dir
func ValidatePathInDirectory(path string, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	// Clean both paths
	cleanPath := filepath.Clean(path)
	cleanBase := filepath.Clean(baseDir)

	// Make baseDir absolute if it isn't already
	var err error
	if !filepath.IsAbs(cleanBase) {
		cleanBase, err = filepath.Abs(cleanBase)
		if err != nil {
			return fmt.Errorf("failed to resolve base directory: %w", err)
		}
	}

	// Resolve path relative to base directory
	var resolvedPath string
	if filepath.IsAbs(cleanPath) {
		resolvedPath = cleanPath
	} else {
		resolvedPath = filepath.Join(cleanBase, cleanPath)
	}

	// Clean the resolved path
	resolvedPath = filepath.Clean(resolvedPath)

	// Use filepath.Rel to check containment
	relPath, err := filepath.Rel(cleanBase, resolvedPath)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}

	// If the relative path starts with "..", it's outside the base directory
	if strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || relPath == ".." {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}

	return nil
}
