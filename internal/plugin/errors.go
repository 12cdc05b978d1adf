package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfirmed is returned when an install needs user confirmation and
// none was given, or the user declined.
var ErrNotConfirmed = errors.New("installation not confirmed")

// ErrAlreadyInstalled is returned when installing a plugin whose id or
// repository is already present.
var ErrAlreadyInstalled = errors.New("plugin already installed")

// ErrNoFactory is returned when enabling a plugin that has no registered
// entry point constructor.
var ErrNoFactory = errors.New("no entry point registered for plugin")

// PolicyError means the registry forbids an operation: the repository or the
// requested ref is blacklisted. It carries everything needed to tell the user
// how to proceed.
type PolicyError struct {
	PluginID string
	URL      string
	Ref      string // set for ref-level blacklists
	Reason   string
	FixedIn  string // ref that fixes the problem, if the registry names one
	Override string // flag that bypasses the policy, e.g. "--force"
}

func (e *PolicyError) Error() string {
	var b strings.Builder
	if e.Ref != "" {
		fmt.Fprintf(&b, "ref %q of %s is blacklisted", e.Ref, e.URL)
	} else {
		fmt.Fprintf(&b, "%s is blacklisted", e.URL)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.FixedIn != "" {
		fmt.Fprintf(&b, " (fixed in %s)", e.FixedIn)
	}
	if e.Override != "" {
		fmt.Fprintf(&b, "; use %s to proceed anyway", e.Override)
	}
	return b.String()
}

// VersionError means no host API version satisfies the plugin. Either the
// manifest's declared versions miss the host entirely, or the registry entry
// bounds the plugin to a host API range the host falls outside of; in the
// latter case MinAPI/MaxAPI carry the bounds.
type VersionError struct {
	PluginID  string
	PluginAPI []string
	MinAPI    string
	MaxAPI    string
	HostAPI   []string
}

func (e *VersionError) Error() string {
	host := strings.Join(e.HostAPI, ", ")
	if e.MinAPI != "" || e.MaxAPI != "" {
		return fmt.Sprintf("registry restricts plugin %s to host API %s, host provides %s",
			e.PluginID, apiRange(e.MinAPI, e.MaxAPI), host)
	}
	return fmt.Sprintf("plugin %s supports API versions %s, host provides %s",
		e.PluginID, strings.Join(e.PluginAPI, ", "), host)
}

func apiRange(min, max string) string {
	switch {
	case min == "":
		return "<= " + max
	case max == "":
		return ">= " + min
	default:
		return min + " to " + max
	}
}

// ActivationError means the plugin's entry point returned an error or
// panicked. The plugin is left in the error state with no hooks registered.
type ActivationError struct {
	PluginID string
	Err      error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activating plugin %s: %v", e.PluginID, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }
