// Package gitrepo synchronizes plugin repositories and resolves refs.
//
// Git is treated as an external content-addressed store reached through the
// Runner interface; nothing outside this package touches a repository
// directly.
package gitrepo

import (
	"os"
	"path/filepath"
	"strings"
)

// RefKind is the kind of ref a requested ref resolved to.
type RefKind string

const (
	RefBranch RefKind = "branch"
	RefTag    RefKind = "tag"
	RefCommit RefKind = "commit"
)

// Source describes where a plugin's code comes from.
type Source struct {
	// URL is a remote git URL or a local filesystem path.
	URL string
	// RequestedRef is the branch, tag or commit asked for (default "main").
	RequestedRef string
	// RefKind is determined during resolution, never supplied by the caller.
	RefKind RefKind
	// Commit is set only after a successful synchronization.
	Commit string
	// Local is derived once from the source string, not re-derived per operation.
	Local bool
}

// NewSource builds a Source from a raw URL-or-path and a requested ref.
func NewSource(raw, ref string) Source {
	if ref == "" {
		ref = "main"
	}
	src := Source{URL: raw, RequestedRef: ref}
	if p := LocalRepositoryPath(raw); p != "" {
		src.URL = p
		src.Local = true
	}
	return src
}

// IsLocal reports whether a source string names a local path rather than a
// remote git URL.
//
// Git supports several URL formats:
//   - scheme://... (http, https, git, ssh, file, ...)
//   - user@host:path (scp-like syntax)
//   - /absolute/path, ~/path or relative/path (local paths)
func IsLocal(src string) bool {
	if src == "" {
		return false
	}
	if strings.Contains(src, "://") {
		return strings.HasPrefix(src, "file://")
	}
	// scp-like syntax: user@host:path has @ before : and no / before the colon
	if i := strings.IndexByte(src, ':'); i >= 0 {
		at := strings.IndexByte(src, '@')
		if at >= 0 && at < i && !strings.Contains(src[:i], "/") {
			return false
		}
	}
	return true
}

// LocalPath returns the expanded absolute path for a local source, or "" for
// remote sources. Home-directory shorthand and relative paths are expanded.
func LocalPath(src string) string {
	if !IsLocal(src) {
		return ""
	}
	src = strings.TrimPrefix(src, "file://")
	if src == "~" || strings.HasPrefix(src, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			src = filepath.Join(home, strings.TrimPrefix(src[1:], "/"))
		}
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return ""
	}
	return abs
}

// LocalRepositoryPath returns the expanded path if the source is a local
// directory containing repository metadata, "" otherwise.
func LocalRepositoryPath(src string) string {
	p := LocalPath(src)
	if p == "" {
		return ""
	}
	if _, err := os.Stat(filepath.Join(p, ".git")); err != nil {
		return ""
	}
	return p
}
