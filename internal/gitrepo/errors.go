package gitrepo

import (
	"fmt"
	"strings"
)

// SyncErrorKind classifies synchronization failures.
type SyncErrorKind string

const (
	// ErrNetwork covers unreachable remotes and timed-out transfers.
	ErrNetwork SyncErrorKind = "network"
	// ErrUnresolvable means the requested ref matched no branch, tag or commit.
	ErrUnresolvable SyncErrorKind = "unresolvable-ref"
	// ErrDirty means the working tree has local edits a hard reset would destroy.
	ErrDirty SyncErrorKind = "dirty-worktree"
	// ErrCorrupt covers unreadable or broken repositories.
	ErrCorrupt SyncErrorKind = "corrupt-repository"
)

// SyncError is returned when a repository cannot be synchronized.
type SyncError struct {
	Kind      SyncErrorKind
	URL       string
	Ref       string
	Available []string // branches and tags, populated for unresolvable refs
	Err       error
}

func (e *SyncError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case ErrUnresolvable:
		fmt.Fprintf(&b, "ref %q not found in %s", e.Ref, e.URL)
		if len(e.Available) > 0 {
			fmt.Fprintf(&b, " (available: %s)", strings.Join(e.Available, ", "))
		}
	case ErrDirty:
		fmt.Fprintf(&b, "working tree for %s has local changes; refusing to discard them", e.URL)
	case ErrNetwork:
		fmt.Fprintf(&b, "cannot reach %s", e.URL)
	case ErrCorrupt:
		fmt.Fprintf(&b, "repository at %s is corrupt", e.URL)
	default:
		fmt.Fprintf(&b, "sync failed for %s", e.URL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SyncError) Unwrap() error { return e.Err }
