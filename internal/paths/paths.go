// Package paths converts between absolute paths and the slash-separated,
// repo-relative form used as file identity throughout depflat.
package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Converts backslashes to forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := evalOrKeep(absolutePath)
	if err != nil {
		return "", err
	}
	repoRootResolved, err := evalOrKeep(repoRoot)
	if err != nil {
		return "", err
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(relativePath), nil
}

// evalOrKeep resolves symlinks, keeping the path as-is if it doesn't exist yet.
func evalOrKeep(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return "", err
	}
	return resolved, nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(p string, repoRoot string) bool {
	canonical, err := CanonicalizePath(p, repoRoot)
	if err != nil {
		return false
	}
	return IsRelWithinRepo(canonical)
}

// IsRelWithinRepo reports whether a canonical relative path stays inside the repo.
func IsRelWithinRepo(rel string) bool {
	return rel != ".." && !strings.HasPrefix(rel, "../") && !path.IsAbs(rel)
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Clean turns a user-supplied relative path into its canonical identity:
// forward slashes, no "./" prefix, no redundant separators or dot segments.
// Two spellings of the same file always clean to the same string.
func Clean(rel string) string {
	cleaned := path.Clean(NormalizePath(rel))
	if cleaned == "." {
		return ""
	}
	return strings.TrimPrefix(cleaned, "./")
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	parts := strings.Split(NormalizePath(canonicalPath), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
