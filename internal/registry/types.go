// Package registry fetches and queries the plugin registry document.
//
// The registry is an externally hosted, read-only JSON document listing
// official plugins, trust levels, blacklists and repository redirects. It is
// cached on disk with a TTL and loaded into an immutable Snapshot that is
// replaced atomically on refresh.
package registry

import (
	"net/url"
	"strings"
	"time"
)

// TrustLevel classifies how much review a plugin repository has had. It
// drives install-time warning strength; there is deliberately no boolean
// "approved" shortcut.
type TrustLevel string

const (
	TrustOfficial      TrustLevel = "official"
	TrustTrustedAuthor TrustLevel = "trustedAuthor"
	TrustCommunity     TrustLevel = "community"
	TrustUnregistered  TrustLevel = "unregistered"
)

// Document is the wire format of the registry.
type Document struct {
	APIVersion     string              `json:"api_version"`
	Plugins        []Entry             `json:"plugins"`
	Blacklist      []BlacklistEntry    `json:"blacklist,omitempty"`
	RefBlacklist   []RefBlacklistEntry `json:"ref_blacklist,omitempty"`
	TrustedAuthors []TrustedAuthor     `json:"trusted_authors,omitempty"`
	Redirects      []Redirect          `json:"redirects,omitempty"`
}

// Entry describes one registered plugin.
type Entry struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	GitURL        string   `json:"git_url"`
	Categories    []string `json:"categories,omitempty"`
	Trust         string   `json:"trust,omitempty"` // "official" | "trusted" | "" (community)
	Author        string   `json:"author,omitempty"`
	MinAPIVersion string   `json:"min_api_version,omitempty"`
	MaxAPIVersion string   `json:"max_api_version,omitempty"`
}

// BlacklistEntry blocks a whole repository.
type BlacklistEntry struct {
	GitURL    string    `json:"git_url"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// RefBlacklistEntry blocks specific refs of a repository, optionally naming
// the ref that fixes the problem.
type RefBlacklistEntry struct {
	GitURL  string   `json:"git_url"`
	Refs    []string `json:"refs"`
	Reason  string   `json:"reason"`
	FixedIn string   `json:"fixed_in,omitempty"`
}

// TrustedAuthor is an author whose plugins skip the unreviewed-code warning.
type TrustedAuthor struct {
	Name   string `json:"name"`
	Handle string `json:"handle,omitempty"`
}

// Redirect maps an old repository URL to its new canonical location.
type Redirect struct {
	OldURL string `json:"old_url"`
	NewURL string `json:"new_url"`
	Reason string `json:"reason,omitempty"`
}

// NormalizeURL canonicalizes a git URL for comparison: host and scheme are
// lowercased, trailing slashes and a ".git" suffix are dropped.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
