package registry

import (
	"fmt"
	"time"
)

// maxRedirectHops bounds redirect chain following to prevent cycles.
const maxRedirectHops = 5

// Snapshot is an immutable point-in-time view of the registry. Lookups are
// pure; a refresh produces a new Snapshot rather than mutating this one.
type Snapshot struct {
	doc       Document
	fetchedAt time.Time

	entries      map[string]*Entry             // normalized URL -> entry
	entriesByID  map[string]*Entry             // registry id -> entry
	blacklist    map[string]*BlacklistEntry    // normalized URL -> entry
	refBlacklist map[string]*RefBlacklistEntry // normalized URL -> entry
	authors      map[string]bool               // name and handle -> trusted
	redirects    map[string]string             // normalized old URL -> new URL
}

// NewSnapshot indexes a registry document.
func NewSnapshot(doc Document, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		doc:          doc,
		fetchedAt:    fetchedAt,
		entries:      make(map[string]*Entry, len(doc.Plugins)),
		entriesByID:  make(map[string]*Entry, len(doc.Plugins)),
		blacklist:    make(map[string]*BlacklistEntry, len(doc.Blacklist)),
		refBlacklist: make(map[string]*RefBlacklistEntry, len(doc.RefBlacklist)),
		authors:      make(map[string]bool, len(doc.TrustedAuthors)),
		redirects:    make(map[string]string, len(doc.Redirects)),
	}
	for i := range doc.Plugins {
		e := &doc.Plugins[i]
		s.entries[NormalizeURL(e.GitURL)] = e
		s.entriesByID[e.ID] = e
	}
	for i := range doc.Blacklist {
		b := &doc.Blacklist[i]
		s.blacklist[NormalizeURL(b.GitURL)] = b
	}
	for i := range doc.RefBlacklist {
		b := &doc.RefBlacklist[i]
		s.refBlacklist[NormalizeURL(b.GitURL)] = b
	}
	for _, a := range doc.TrustedAuthors {
		if a.Name != "" {
			s.authors[a.Name] = true
		}
		if a.Handle != "" {
			s.authors[a.Handle] = true
		}
	}
	for _, r := range doc.Redirects {
		s.redirects[NormalizeURL(r.OldURL)] = r.NewURL
	}
	return s
}

// FetchedAt returns when this snapshot was fetched.
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// APIVersion returns the registry document's API version.
func (s *Snapshot) APIVersion() string { return s.doc.APIVersion }

// IsBlacklisted reports whether a whole repository is blacklisted.
func (s *Snapshot) IsBlacklisted(gitURL string) (bool, string) {
	if b, ok := s.blacklist[NormalizeURL(gitURL)]; ok {
		reason := b.Reason
		if reason == "" {
			reason = "repository is blacklisted"
		}
		return true, reason
	}
	return false, ""
}

// IsRefBlacklisted reports whether a specific ref of a repository is
// blacklisted, and the fixed-in ref if the registry names one.
func (s *Snapshot) IsRefBlacklisted(gitURL, ref string) (blocked bool, reason, fixedIn string) {
	b, ok := s.refBlacklist[NormalizeURL(gitURL)]
	if !ok {
		return false, "", ""
	}
	for _, r := range b.Refs {
		if r == ref {
			reason := b.Reason
			if reason == "" {
				reason = fmt.Sprintf("ref %s is blacklisted", ref)
			}
			return true, reason, b.FixedIn
		}
	}
	return false, "", ""
}

// TrustLevel classifies a repository URL. Official beats trusted author,
// which beats plain registry membership; absence is unregistered.
func (s *Snapshot) TrustLevel(gitURL string) TrustLevel {
	e, ok := s.entries[NormalizeURL(gitURL)]
	if !ok {
		return TrustUnregistered
	}
	switch {
	case e.Trust == "official":
		return TrustOfficial
	case e.Trust == "trusted" || s.authors[e.Author]:
		return TrustTrustedAuthor
	default:
		return TrustCommunity
	}
}

// ResolveRedirect follows redirect records to the canonical URL, up to
// maxRedirectHops. The original URL is returned unchanged when no redirect
// matches; a broken chain stops at the last resolvable URL.
func (s *Snapshot) ResolveRedirect(gitURL string) string {
	current := gitURL
	for hop := 0; hop < maxRedirectHops; hop++ {
		next, ok := s.redirects[NormalizeURL(current)]
		if !ok || next == "" {
			return current
		}
		current = next
	}
	return current
}

// Find looks an entry up by registry id or git URL.
func (s *Snapshot) Find(idOrURL string) *Entry {
	if e, ok := s.entriesByID[idOrURL]; ok {
		return e
	}
	if e, ok := s.entries[NormalizeURL(idOrURL)]; ok {
		return e
	}
	return nil
}

// List returns registry entries, optionally filtered by category and trust
// level. Empty filters match everything.
func (s *Snapshot) List(category string, trust TrustLevel) []Entry {
	var out []Entry
	for _, e := range s.doc.Plugins {
		if trust != "" && s.TrustLevel(e.GitURL) != trust {
			continue
		}
		if category != "" {
			found := false
			for _, c := range e.Categories {
				if c == category {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}
