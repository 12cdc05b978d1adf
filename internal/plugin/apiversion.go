package plugin

import (
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultHostAPI lists the plugin API versions this host implements.
var DefaultHostAPI = []string{"3.0", "3.1"}

// apiCompatible reports whether any plugin-declared API version matches a
// host version. Versions compare at major.minor granularity; patch levels
// never affect compatibility.
func apiCompatible(host, plugin []string) bool {
	for _, h := range host {
		hv := semver.MajorMinor(canonVersion(h))
		if hv == "" {
			continue
		}
		for _, p := range plugin {
			if semver.MajorMinor(canonVersion(p)) == hv {
				return true
			}
		}
	}
	return false
}

// apiInRange reports whether any host API version falls inside the
// inclusive [min, max] bounds a registry entry declares. Empty bounds are
// open; comparison is at major.minor granularity like apiCompatible.
func apiInRange(host []string, min, max string) bool {
	if min == "" && max == "" {
		return true
	}
	minV := semver.MajorMinor(canonVersion(min))
	maxV := semver.MajorMinor(canonVersion(max))
	for _, h := range host {
		hv := semver.MajorMinor(canonVersion(h))
		if hv == "" {
			continue
		}
		if min != "" && semver.Compare(hv, minV) < 0 {
			continue
		}
		if max != "" && semver.Compare(hv, maxV) > 0 {
			continue
		}
		return true
	}
	return false
}

// canonVersion accepts both "3.0" and "v3.0" spellings.
func canonVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
