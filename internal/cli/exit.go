package cli

import (
	"context"
	"errors"

	"github.com/vireotag/vireo/internal/gitrepo"
	"github.com/vireotag/vireo/internal/manifest"
	"github.com/vireotag/vireo/internal/plugin"
	"github.com/vireotag/vireo/internal/store"
)

// Process exit codes, one per failure class so scripts can branch on them.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitNotFound   = 2
	ExitNetwork    = 3
	ExitGit        = 4
	ExitBlacklist  = 5
	ExitAPIVersion = 6
	ExitManifest   = 7
	ExitCancelled  = 8
)

// ExitCode maps an error from Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, store.ErrNotFound) {
		return ExitNotFound
	}
	if errors.Is(err, plugin.ErrNotConfirmed) || errors.Is(err, context.Canceled) {
		return ExitCancelled
	}

	var serr *gitrepo.SyncError
	if errors.As(err, &serr) {
		if serr.Kind == gitrepo.ErrNetwork {
			return ExitNetwork
		}
		return ExitGit
	}

	var perr *plugin.PolicyError
	if errors.As(err, &perr) {
		return ExitBlacklist
	}
	var verr *plugin.VersionError
	if errors.As(err, &verr) {
		return ExitAPIVersion
	}
	var merr *manifest.Error
	if errors.As(err, &merr) {
		return ExitManifest
	}

	return ExitFailure
}
