package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hirmes/hirmes/internal/results"
	"github.com/hirmes/hirmes/internal/tagging"
)

func sampleView(capability tagging.Capability) results.View {
	return results.BuildView(results.Snapshot{
		Present:    true,
		Epoch:      1,
		Query:      "kernel",
		Capability: capability,
		Rows: []results.Row{
			{
				Path:        "/docs/os/kernel.pdf",
				PageNumbers: []int{1, 4},
				MatchTerms:  []string{"kernel"},
				Snippets:    []string{"the kernel schedules"},
				Tag:         results.TagState{Status: results.TagResolved, Value: "os, notes"},
			},
			{
				Path:       "/docs/cooking/popcorn.txt",
				MatchTerms: []string{"kernel", "maize"},
				Snippets:   []string{"pop every kernel"},
			},
		},
	})
}

func TestRenderTable_HeadersAndCells(t *testing.T) {
	out := RenderTable(sampleView(tagging.Available), NoColorStyles(), TableOptions{Selected: -1})

	for _, want := range []string{
		results.HeaderPath, results.HeaderPages, results.HeaderTerms, results.HeaderSnippets, results.HeaderTags,
		"/docs/os/kernel.pdf", "1, 4", "the kernel schedules", "os, notes",
		"/docs/cooking/popcorn.txt", results.TagLoadingText,
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderTable_NoTagColumnWhenUnavailable(t *testing.T) {
	out := RenderTable(sampleView(tagging.Unavailable), NoColorStyles(), TableOptions{Selected: -1})

	assert.NotContains(t, out, results.HeaderTags)
	assert.NotContains(t, out, results.TagLoadingText)
	assert.Contains(t, out, "/docs/os/kernel.pdf")
}

func TestRenderTable_Empty(t *testing.T) {
	v := results.BuildView(results.Snapshot{Present: true, Epoch: 1})

	assert.Equal(t, NoResultsText, RenderTable(v, NoColorStyles(), TableOptions{}))
}

func TestRenderTable_RowSubset(t *testing.T) {
	v := sampleView(tagging.Available)

	out := RenderTable(v, NoColorStyles(), TableOptions{Rows: []int{1}, Selected: 1})
	assert.Contains(t, out, "popcorn.txt")
	assert.NotContains(t, out, "kernel.pdf")

	assert.Equal(t, NoResultsText, RenderTable(v, NoColorStyles(), TableOptions{Rows: []int{}}))
}

func TestRenderTable_MaxPathShortens(t *testing.T) {
	out := RenderTable(sampleView(tagging.Available), NoColorStyles(), TableOptions{Selected: -1, MaxPath: 16})

	assert.Contains(t, out, "kernel.pdf")
	assert.NotContains(t, out, "/docs/os/kernel.pdf")
}

func TestRenderTable_FixedWidth(t *testing.T) {
	out := RenderTable(sampleView(tagging.Available), NoColorStyles(), TableOptions{Selected: -1, Width: 100})

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 100)
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		maxLen int
		want   string
	}{
		{"fits", "/a/b.txt", 20, "/a/b.txt"},
		{"empty", "", 5, ""},
		{"keeps filename", "/very/long/directory/name/file.txt", 20, "...ory/name/file.txt"},
		{"filename too long", "/dir/averyveryverylongname.txt", 10, "...ame.txt"},
		{"no separators", "abcdefghijklmnop", 8, "...lmnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePath(tt.path, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), max(tt.maxLen, 3))
		})
	}
}
