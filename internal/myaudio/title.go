package myaudio

import (
	"fmt"
	"regexp"
)

// versionSuffix matches a trailing " (N)" version marker on a title.
var versionSuffix = regexp.MustCompile(`^(.+?)\s*\((\d+)\)$`)

// VersionedTitle derives a title for a transformed recording: the smallest
// positive N for which "<base> (N)" is not already taken, compared with
// exact case-sensitive matches. When the source title itself carries a
// version marker, the base is the prefix before it; the search always
// restarts at 1.
func VersionedTitle(sourceTitle string, existingTitles []string) string {
	base := sourceTitle
	if m := versionSuffix.FindStringSubmatch(sourceTitle); m != nil {
		base = m[1]
	}

	taken := make(map[string]struct{}, len(existingTitles))
	for _, t := range existingTitles {
		taken[t] = struct{}{}
	}

	for version := 1; ; version++ {
		candidate := fmt.Sprintf("%s (%d)", base, version)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}
