package utils

import "strings"

// Search returns the items matching query, case-insensitively. With
// exact set only full matches qualify, otherwise substring containment
// counts. The input order is preserved.
//
// Parameters:
//   - query: The term to look for.
//   - items: The candidate strings.
//   - exact: Whether to require a full match instead of containment.
//
// Returns:
//   - The matching items, possibly empty.
func Search(query string, items []string, exact bool) []string {
	query = strings.ToLower(query)

	matches := make([]string, 0, len(items))
	for _, item := range items {
		candidate := strings.ToLower(item)
		if exact {
			if candidate == query {
				matches = append(matches, item)
			}
			continue
		}
		if strings.Contains(candidate, query) {
			matches = append(matches, item)
		}
	}
	return matches
}
