package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vireotag/vireo/internal/logging"
)

// SyncResult describes the state a working copy was reset to.
type SyncResult struct {
	Commit     string
	RefKind    RefKind
	CommitTime time.Time
	Subject    string
}

// SyncOptions tunes a single Sync call.
type SyncOptions struct {
	// AllowDirty permits the hard reset to discard local edits. Local
	// repository installs are a developer workflow, so discarding silently
	// is never the default.
	AllowDirty bool
}

// Resolver clones, fetches and resolves plugin repositories.
type Resolver struct {
	run Runner
	log *logging.Logger
}

// NewResolver creates a resolver using the given runner.
func NewResolver(run Runner, log *logging.Logger) *Resolver {
	return &Resolver{run: run, log: log.Sub("gitrepo")}
}

// Sync makes targetDir hold the source's requested ref. If targetDir already
// holds a working copy all remote refs are fetched, otherwise the source is
// cloned (local sources are cloned too, never symlinked, so edits in a
// development checkout stay invisible until the next sync). The requested ref
// is resolved with precedence remote branch, then tag, then commit hash, and
// the working copy is hard-reset to the resolved commit.
func (r *Resolver) Sync(ctx context.Context, src Source, targetDir string, opts SyncOptions) (SyncResult, error) {
	cloned, err := r.cloneOrFetch(ctx, src, targetDir)
	if err != nil {
		return SyncResult{}, err
	}

	if !cloned && !opts.AllowDirty {
		dirty, err := r.isDirty(ctx, targetDir)
		if err != nil {
			return SyncResult{}, &SyncError{Kind: ErrCorrupt, URL: src.URL, Err: err}
		}
		if dirty {
			return SyncResult{}, &SyncError{Kind: ErrDirty, URL: src.URL, Ref: src.RequestedRef}
		}
	}

	commit, kind, err := r.resolveRef(ctx, targetDir, src.RequestedRef)
	if err != nil {
		if se, ok := err.(*SyncError); ok {
			se.URL = src.URL
		}
		return SyncResult{}, err
	}

	if _, err := r.run.Run(ctx, targetDir, "reset", "--hard", commit); err != nil {
		return SyncResult{}, &SyncError{Kind: ErrCorrupt, URL: src.URL, Ref: src.RequestedRef, Err: err}
	}

	res := SyncResult{Commit: commit, RefKind: kind}
	if ts, subject, err := r.commitInfo(ctx, targetDir, commit); err == nil {
		res.CommitTime = ts
		res.Subject = subject
	}

	if kind == RefCommit {
		// Pinned to a raw commit: valid, but such a plugin will not auto-update.
		r.log.Warn().
			Str("url", src.URL).
			Str("commit", commit).
			Msg("ref resolved to a detached commit; plugin will not follow updates")
	}

	r.log.Debug().
		Str("url", src.URL).
		Str("ref", src.RequestedRef).
		Str("kind", string(kind)).
		Str("commit", commit).
		Msg("source synchronized")

	return res, nil
}

// cloneOrFetch reports whether a fresh clone was made.
func (r *Resolver) cloneOrFetch(ctx context.Context, src Source, targetDir string) (bool, error) {
	if _, err := os.Stat(filepath.Join(targetDir, ".git")); err == nil {
		if _, err := r.run.Run(ctx, targetDir, "fetch", "--all", "--tags", "--prune"); err != nil {
			return false, &SyncError{Kind: ErrNetwork, URL: src.URL, Ref: src.RequestedRef, Err: err}
		}
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(targetDir), 0o700); err != nil {
		return false, fmt.Errorf("creating plugin directory: %w", err)
	}
	if _, err := r.run.Run(ctx, "", "clone", src.URL, targetDir); err != nil {
		kind := ErrNetwork
		if src.Local {
			kind = ErrCorrupt
		}
		return false, &SyncError{Kind: kind, URL: src.URL, Ref: src.RequestedRef, Err: err}
	}
	return true, nil
}

func (r *Resolver) isDirty(ctx context.Context, dir string) (bool, error) {
	out, err := r.run.Run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// resolveRef resolves a requested ref with precedence branch, tag, commit.
func (r *Resolver) resolveRef(ctx context.Context, dir, ref string) (string, RefKind, error) {
	candidates := []struct {
		spec string
		kind RefKind
	}{
		{"refs/remotes/origin/" + ref, RefBranch},
		{"refs/tags/" + ref + "^{commit}", RefTag},
		{ref + "^{commit}", RefCommit},
	}

	for _, c := range candidates {
		out, err := r.run.Run(ctx, dir, "rev-parse", "--verify", "--quiet", c.spec)
		if err == nil && out != "" {
			return out, c.kind, nil
		}
	}

	return "", "", &SyncError{
		Kind:      ErrUnresolvable,
		Ref:       ref,
		Available: r.availableRefs(ctx, dir),
	}
}

// availableRefs lists remote branches and tags for unresolvable-ref errors.
func (r *Resolver) availableRefs(ctx context.Context, dir string) []string {
	var refs []string
	if out, err := r.run.Run(ctx, dir, "branch", "-r", "--format", "%(refname:short)"); err == nil {
		for _, line := range strings.Split(out, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasSuffix(line, "/HEAD") {
				continue
			}
			refs = append(refs, strings.TrimPrefix(line, "origin/"))
		}
	}
	if out, err := r.run.Run(ctx, dir, "tag", "--list"); err == nil {
		for _, line := range strings.Split(out, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				refs = append(refs, line)
			}
		}
	}
	return refs
}

func (r *Resolver) commitInfo(ctx context.Context, dir, commit string) (time.Time, string, error) {
	out, err := r.run.Run(ctx, dir, "show", "-s", "--format=%ct%n%s", commit)
	if err != nil {
		return time.Time{}, "", err
	}
	lines := strings.SplitN(out, "\n", 2)
	unix, err := strconv.ParseInt(strings.TrimSpace(lines[0]), 10, 64)
	if err != nil {
		return time.Time{}, "", err
	}
	subject := ""
	if len(lines) > 1 {
		subject = strings.TrimSpace(lines[1])
	}
	return time.Unix(unix, 0).UTC(), subject, nil
}
