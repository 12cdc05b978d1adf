package plugin

import (
	"fmt"

	"github.com/vireotag/vireo/internal/registry"
)

// Warning describes unreviewed code the user is about to install. It is
// produced before anything is cloned.
type Warning struct {
	URL     string
	Trust   registry.TrustLevel
	Message string
}

// ConfirmFunc decides whether an install proceeds after a trust warning.
// Returning false aborts the install.
type ConfirmFunc func(Warning) bool

// accessSummary spells out what an enabled plugin is actually granted, so
// the user confirms against concrete access rather than a vague caution.
const accessSummary = "Once enabled it can read and modify track metadata, " +
	"provide cover art, run background tasks and keep private data on this machine."

func trustWarning(url string, trust registry.TrustLevel) Warning {
	var msg string
	switch trust {
	case registry.TrustCommunity:
		msg = fmt.Sprintf("%s is a community plugin; its code has not been reviewed. %s", url, accessSummary)
	default:
		msg = fmt.Sprintf("%s is not listed in the plugin registry; install only if you trust its author. %s", url, accessSummary)
	}
	return Warning{URL: url, Trust: trust, Message: msg}
}
