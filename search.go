package iconpane

import "strings"

// Match is an icon reference found by a search, tagged with its library.
type Match struct {
	Icon        IconReference
	LibraryID   string
	LibraryName string
}

// DefaultSearchLimit caps the result count of a cross-library search.
const DefaultSearchLimit = 500

// Search filters the icons of manifests by query. An icon matches when the trimmed,
// case-insensitive query is a substring of its name, title, category or one of its
// tags; the empty query matches everything. Manifest order and icon order are kept.
func Search(manifests []*ManifestDocument, query string) []Match {
	return SearchWithLimit(manifests, query, 0)
}

// SearchWithLimit is Search returning at most limit matches. A limit of zero or less
// means no limit.
func SearchWithLimit(manifests []*ManifestDocument, query string, limit int) []Match {
	q := strings.ToLower(strings.TrimSpace(query))

	var out []Match
	for _, m := range manifests {
		if m == nil {
			continue
		}
		for _, icon := range m.Icons {
			if !icon.Matches(q) {
				continue
			}
			out = append(out, Match{Icon: icon.IconReference, LibraryID: m.ID, LibraryName: m.Name})
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// Matches reports whether the reference matches an already lowercased query.
func (r IconReference) Matches(q string) bool {
	if q == "" {
		return true
	}
	if contains(r.Name, q) || contains(r.Title, q) || contains(r.Category, q) {
		return true
	}
	for _, tag := range r.Tags {
		if contains(tag, q) {
			return true
		}
	}
	return false
}

func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

// FilterCategory keeps the matches of one category; "" and "all" keep everything.
func FilterCategory(matches []Match, category string) []Match {
	if category == "" || category == "all" {
		return matches
	}
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Icon.Category == category {
			out = append(out, m)
		}
	}
	return out
}
