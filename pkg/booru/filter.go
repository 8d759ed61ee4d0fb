package booru

import "strings"

// Filter is an ordered list of search terms. Whether a filter is ordered
// decides how its listing paginates: ordered results follow a server-defined
// sort and can only advance by page number, unordered results are keyed by
// record ID and resume by ID boundary, which stays stable even while new
// records are being inserted upstream.
type Filter []string

// Ordered reports whether any term requests a server-defined sort.
func (f Filter) Ordered() bool {
	for _, term := range f {
		if strings.HasPrefix(term, "order:") {
			return true
		}
	}
	return false
}

// Tags returns the filter in wire form, terms joined by single spaces.
func (f Filter) Tags() string {
	return strings.Join(f, " ")
}
