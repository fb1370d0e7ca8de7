// Package filter provides reusable file filtering for snapshot scans
// and listings. Patterns are standard globs, with ** in path patterns
// matching across directory levels.
package filter

import (
	"path/filepath"
	"strings"
)

// Config holds filter configuration. A zero Config matches everything.
type Config struct {
	// Include patterns (glob-style), matched against the path and its
	// base name. Empty means include all.
	// Example: []string{"*.dat", "*.txt"}
	Include []string

	// Exclude patterns (glob-style). Takes precedence over Include.
	// Example: []string{"run-*", "*.log"}
	Exclude []string

	// Search terms (case-insensitive substring match). A path must
	// match ALL search terms to be included.
	Search []string

	// PathInclude patterns match against the full relative path and
	// support ** for multi-directory matching.
	// Example: []string{"run-*/thread_output_*", "**/results.txt"}
	PathInclude []string
}

// Empty reports whether the config filters nothing.
func (c Config) Empty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0 && len(c.Search) == 0 && len(c.PathInclude) == 0
}

// Matches reports whether a relative path passes the filter. Exclude
// wins over everything else; Include, Search and PathInclude must all
// pass when set.
func (c Config) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	base := filepath.Base(relPath)

	for _, pattern := range c.Exclude {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return false
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}

	if len(c.Include) > 0 {
		included := false
		for _, pattern := range c.Include {
			if matched, _ := filepath.Match(pattern, relPath); matched {
				included = true
				break
			}
			if matched, _ := filepath.Match(pattern, base); matched {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	if len(c.Search) > 0 {
		lower := strings.ToLower(relPath)
		for _, term := range c.Search {
			if !strings.Contains(lower, strings.ToLower(term)) {
				return false
			}
		}
	}

	if len(c.PathInclude) > 0 {
		matched := false
		for _, pattern := range c.PathInclude {
			if matchPathPattern(relPath, filepath.ToSlash(pattern)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// matchPathPattern matches a slash-separated path against a pattern,
// dispatching ** patterns to the recursive matcher.
func matchPathPattern(path, pattern string) bool {
	if strings.Contains(pattern, "**") {
		return matchDoubleStarPattern(path, pattern)
	}
	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	return matched
}

// matchDoubleStarPattern handles ** globs.
// Examples:
//   - "**/foo.txt" matches "foo.txt", "a/foo.txt", "a/b/c/foo.txt"
//   - "run-1/**" matches anything under run-1
//   - "runs/**/out.txt" matches "runs/a/out.txt", "runs/a/b/out.txt"
func matchDoubleStarPattern(path, pattern string) bool {
	// Pattern starts with **/ : match the suffix at any depth
	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		if matchPathPattern(path, suffix) {
			return true
		}
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchPathPattern(strings.Join(parts[i:], "/"), suffix) {
				return true
			}
		}
		return false
	}

	// Pattern ends with /** : match the prefix and any descendant
	if strings.HasSuffix(pattern, "/**") {
		prefix := pattern[:len(pattern)-3]
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
		parts := strings.Split(path, "/")
		for i := 1; i <= len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); matched {
				return true
			}
		}
		return false
	}

	// ** in the middle: match prefix, any depth, then suffix
	if at := strings.Index(pattern, "/**/"); at != -1 {
		prefix := pattern[:at]
		suffix := pattern[at+4:]
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); matched {
				for j := i; j <= len(parts); j++ {
					if matchPathPattern(strings.Join(parts[j:], "/"), suffix) {
						return true
					}
				}
			}
		}
		return false
	}

	if pattern == "**" {
		return true
	}

	// Bare ** without separators degrades to *
	matched, _ := filepath.Match(strings.ReplaceAll(pattern, "**", "*"), path)
	return matched
}

// ParsePatternList parses a comma-separated pattern list.
// Example: "*.dat,*.txt" -> []string{"*.dat", "*.txt"}
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}
	parts := strings.Split(patternStr, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
