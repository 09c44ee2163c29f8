package results

import (
	"strconv"
	"strings"

	"github.com/hirmes/hirmes/internal/tagging"
)

// Column headers.
const (
	HeaderPath     = "Path"
	HeaderPages    = "Pages"
	HeaderTerms    = "Terms matched"
	HeaderSnippets = "Snippets"
	HeaderTags     = "Tags"
)

// View is the renderable form of a result set.
type View struct {
	Title    string
	Headers  []string
	Rows     [][]string
	Paths    []string
	ShowTags bool
	Empty    bool
}

// BuildView turns a snapshot into cells. It has no side effects; the tag
// column exists unless the set's capability is Unavailable.
func BuildView(s Snapshot) View {
	v := View{
		Title:    "Search Results",
		Headers:  []string{HeaderPath, HeaderPages, HeaderTerms, HeaderSnippets},
		ShowTags: s.Capability != tagging.Unavailable,
		Empty:    len(s.Rows) == 0,
	}
	if v.ShowTags {
		v.Headers = append(v.Headers, HeaderTags)
	}

	for _, r := range s.Rows {
		cells := []string{
			r.Path,
			joinInts(r.PageNumbers),
			strings.Join(r.MatchTerms, "\n"),
			strings.Join(r.Snippets, "\n"),
		}
		if v.ShowTags {
			cells = append(cells, r.Tag.Text())
		}
		v.Rows = append(v.Rows, cells)
		v.Paths = append(v.Paths, r.Path)
	}
	return v
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
