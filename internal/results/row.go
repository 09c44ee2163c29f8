// Package results holds the active search result set and builds its view.
package results

import (
	"github.com/hirmes/hirmes/internal/client"
)

// TagStatus is the enrichment state of one row.
type TagStatus int

const (
	TagPending TagStatus = iota
	TagResolved
	TagFailed
)

// Cell texts for the tag column.
const (
	TagLoadingText = "Loading..."
	TagEmptyText   = "(no tags)"
	TagErrorText   = "Error"
)

// TagState is a row's tag cell.
type TagState struct {
	Status TagStatus
	Value  string
}

// Text returns what the tag cell displays.
func (t TagState) Text() string {
	switch t.Status {
	case TagResolved:
		if t.Value == "" {
			return TagEmptyText
		}
		return t.Value
	case TagFailed:
		return TagErrorText
	default:
		return TagLoadingText
	}
}

// Row is one search hit in a result set.
type Row struct {
	Path        string
	PageNumbers []int
	// MatchTerms is deduplicated, first-seen order.
	MatchTerms []string
	Snippets   []string
	Tag        TagState
}

// RowsFromResponse converts wire rows into pending rows.
func RowsFromResponse(in []client.ResultRow) []Row {
	rows := make([]Row, 0, len(in))
	for _, r := range in {
		rows = append(rows, Row{
			Path:        r.Path,
			PageNumbers: append([]int(nil), r.PageNumbers...),
			MatchTerms:  dedupe(r.MatchTerms),
			Snippets:    append([]string(nil), r.Snippets...),
		})
	}
	return rows
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (r Row) clone() Row {
	r.PageNumbers = append([]int(nil), r.PageNumbers...)
	r.MatchTerms = append([]string(nil), r.MatchTerms...)
	r.Snippets = append([]string(nil), r.Snippets...)
	return r
}
