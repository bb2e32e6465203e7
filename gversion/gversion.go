// Package gversion extracts SPT game versions from release and asset names.
package gversion

import (
	"regexp"
	"sort"
	"strings"
)

// versionRE finds version-looking substrings: an optional leading v, a
// numeric major, and optional minor/patch components that may be digits or
// a wildcard token.
var versionRE = regexp.MustCompile(`(?i)\bv?(\d+)(?:\.(\d+|[x*]))?(?:\.(\d+|[x*]))?\b`)

// KnownVersions are the minor version prefixes of the supported SPT family.
// Version strings outside this family are discarded during collection.
var KnownVersions = []string{"3.11", "3.10", "3.9"}

// Extract scans s for versions and normalizes each to MAJOR.MINOR.PATCH,
// substituting the wildcard token "x" for missing or wildcard components.
func Extract(s string) []string {
	var out []string
	for _, cap := range versionRE.FindAllStringSubmatch(s, -1) {
		major := cap[1]
		minor := normalizeComponent(cap[2])
		patch := normalizeComponent(cap[3])
		out = append(out, major+"."+minor+"."+patch)
	}
	return out
}

func normalizeComponent(c string) string {
	if c == "" || c == "*" || strings.EqualFold(c, "x") {
		return "x"
	}
	return c
}

// IsKnown reports whether version belongs to the supported SPT family.
func IsKnown(version string) bool {
	for _, prefix := range KnownVersions {
		if strings.HasPrefix(version, prefix) {
			return true
		}
	}
	return false
}

// TrimPatch cuts the trailing patch (or wildcard) component from a full
// MAJOR.MINOR.PATCH version, leaving MAJOR.MINOR. Shorter forms pass
// through unchanged; compatibility is compared at minor granularity.
func TrimPatch(version string) string {
	if strings.Count(version, ".") == 2 {
		if pos := strings.LastIndex(version, "."); pos >= 0 {
			return version[:pos]
		}
	}
	return version
}

// Collect extracts versions from each name (release title first, then asset
// filenames), prefers the longest extraction lists when duplicates conflict,
// restricts to the known version family, and trims the patch component.
// Returns nil when nothing recognizable was found.
func Collect(names ...string) []string {
	found := make([][]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		found = append(found, Extract(name))
	}
	if len(found) == 0 {
		return nil
	}

	// Longest extraction lists first, then drop adjacent duplicates.
	sort.SliceStable(found, func(i, j int) bool { return len(found[i]) > len(found[j]) })
	found = dedupeLists(found)

	var out []string
	seen := make(map[string]struct{})
	for _, list := range found {
		for _, v := range list {
			if !IsKnown(v) {
				continue
			}
			v = TrimPatch(v)
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func dedupeLists(lists [][]string) [][]string {
	out := lists[:0]
	for i, list := range lists {
		if i > 0 && equalList(list, out[len(out)-1]) {
			continue
		}
		out = append(out, list)
	}
	return out
}

func equalList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
