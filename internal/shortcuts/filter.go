package shortcuts

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

// Filter returns the entries whose trigger or expansion contains query,
// ignoring case. An empty query returns all entries unchanged.
// Matches are ordered best first; ordering never drops a match.
func Filter(entries []ShortcutEntry, query string) []ShortcutEntry {
	if query == "" {
		return entries
	}

	needle := strings.ToLower(query)
	matches := lo.Filter(entries, func(entry ShortcutEntry, _ int) bool {
		return strings.Contains(strings.ToLower(entry.Trigger), needle) ||
			strings.Contains(strings.ToLower(entry.Expansion), needle)
	})

	return rank(matches, needle)
}

// rank orders matches by fuzzy score against "trigger expansion", so that a
// hit in the trigger outranks one deep inside a long expansion.
func rank(matches []ShortcutEntry, needle string) []ShortcutEntry {
	haystack := lo.Map(matches, func(entry ShortcutEntry, _ int) string {
		return strings.ToLower(entry.Trigger + " " + entry.Expansion)
	})

	ranked := make([]ShortcutEntry, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, match := range fuzzy.Find(needle, haystack) {
		ranked = append(ranked, matches[match.Index])
		seen[match.Index] = true
	}

	// A substring is always a subsequence, so this only runs if the scorer
	// and the filter ever disagree.
	for i, entry := range matches {
		if !seen[i] {
			ranked = append(ranked, entry)
		}
	}

	return ranked
}
