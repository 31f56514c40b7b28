package search

import "strings"

// MatchMode decides how query text is compared with entity fields
type MatchMode int

const (
	// MatchCaseSensitive plain substring match, the default
	MatchCaseSensitive MatchMode = iota
	// MatchCaseInsensitive substring match ignoring letter case
	MatchCaseInsensitive
)

// String name of the mode
func (m MatchMode) String() string {
	if m == MatchCaseInsensitive {
		return "case_insensitive"
	}

	return "case_sensitive"
}

// Filter is the store-level query for one entity type.
//
// Text is always a literal, stores must never interpret it as a pattern.
type Filter struct {
	Text string
	Mode MatchMode
}

// NewFilter build filter for query text
func NewFilter(text string, mode MatchMode) Filter {
	return Filter{Text: text, Mode: mode}
}

// Contains whether field contains the filter text
func (f Filter) Contains(field string) bool {
	if f.Text == "" {
		return false
	}

	if f.Mode == MatchCaseInsensitive {
		return strings.Contains(strings.ToLower(field), strings.ToLower(f.Text))
	}

	return strings.Contains(field, f.Text)
}

// ContainsAny whether any of fields contains the filter text
func (f Filter) ContainsAny(fields ...string) bool {
	for _, field := range fields {
		if f.Contains(field) {
			return true
		}
	}

	return false
}

// Window skip/take pagination pushed down to the store.
// A nil *Window means the store returns every match.
type Window struct {
	Skip int
	Take int
}

// NewWindow window for 1-based page of size limit
func NewWindow(page, limit int) *Window {
	return &Window{Skip: (page - 1) * limit, Take: limit}
}
