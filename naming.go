package chatflow

import (
	"fmt"
	"regexp"
	"slices"
)

var copySuffix = regexp.MustCompile(`^(.*) \((\d+)\)$`)

// NextName returns the display name for another copy of base. It counts
// every existing name equal to base or of the form "base (n)" and uses
// that count, stepping past any name that is already taken.
func NextName(base string, existing []string) string {
	return nextCopyName(base, existing, existing)
}

// nextCopyName counts matches in counted and avoids collisions with taken.
func nextCopyName(base string, counted, taken []string) string {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + ` \(\d+\)$`)
	n := 0
	for _, name := range counted {
		if name == base || pattern.MatchString(name) {
			n++
		}
	}
	for {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !slices.Contains(taken, candidate) {
			return candidate
		}
		n++
	}
}

// BaseName strips one trailing " (n)" copy suffix, so copies of copies
// share a counter with the original.
func BaseName(name string) string {
	if m := copySuffix.FindStringSubmatch(name); m != nil && m[1] != "" {
		return m[1]
	}
	return name
}
