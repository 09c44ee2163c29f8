package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirmes/hirmes/internal/client"
	"github.com/hirmes/hirmes/internal/results"
)

func kernelResults(req client.SearchRequest) client.SearchResponse {
	return client.SearchResponse{
		Spellchecked: req.Query,
		Results: []client.ResultRow{{
			Path:        "/docs/os/kernel.pdf",
			PageNumbers: []int{3, 7},
			MatchTerms:  []string{"kernel", "kernel"},
			Snippets:    []string{"the kernel schedules"},
		}},
	}
}

func TestSearchCmd_PrintsResultsWithTags(t *testing.T) {
	// Given: a service with one hit and tags for it
	isolateHome(t)
	f, srv := newFakeService(t)
	f.search = kernelResults
	f.tags["/docs/os/kernel.pdf"] = []string{"os", "notes"}

	// When: searching
	stdout, _, err := run(t, srv.URL, "", "search", "kernel")

	// Then: the table carries the row and its resolved tags
	require.NoError(t, err)
	assert.Contains(t, stdout, "/docs/os/kernel.pdf")
	assert.Contains(t, stdout, "3, 7")
	assert.Contains(t, stdout, results.HeaderTags)
	assert.Contains(t, stdout, "os, notes")
	assert.NotContains(t, stdout, results.TagLoadingText)

	reqs := f.searchRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, client.SearchRequest{Query: "kernel", FullText: false}, reqs[0])
}

func TestSearchCmd_FullTextFlag(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)

	_, _, err := run(t, srv.URL, "", "search", "--full-text", "operating", "systems")
	require.NoError(t, err)

	reqs := f.searchRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "operating systems", reqs[0].Query)
	assert.True(t, reqs[0].FullText)
}

func TestSearchCmd_NoTagColumnWhenTaggingUnavailable(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)
	f.search = kernelResults
	f.tagging = false

	stdout, _, err := run(t, srv.URL, "", "search", "kernel")

	require.NoError(t, err)
	assert.Contains(t, stdout, "/docs/os/kernel.pdf")
	assert.NotContains(t, stdout, results.HeaderTags)
}

func TestSearchCmd_ServiceErrorIsShownOnce(t *testing.T) {
	// Given: a service that reports an error in the body
	isolateHome(t)
	f, srv := newFakeService(t)
	f.search = func(client.SearchRequest) client.SearchResponse {
		return client.SearchResponse{Error: "index not built"}
	}

	// When: searching through Execute's error path
	stdout, _, err := run(t, srv.URL, "", "search", "kernel")

	// Then: the service message is shown by the console and marked reported
	require.Error(t, err)
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stdout, "index not built")
	assert.NotContains(t, stdout, "/docs/os/kernel.pdf")
}

func TestSearchCmd_AcceptedSuggestionSearchesAgain(t *testing.T) {
	// Given: a service that corrects "kernal" to "kernel"
	isolateHome(t)
	f, srv := newFakeService(t)
	f.search = func(req client.SearchRequest) client.SearchResponse {
		resp := kernelResults(req)
		if req.Query == "kernal" {
			resp.Spellchecked = "kernel"
			resp.Results = nil
		}
		return resp
	}

	// When: the user answers yes
	stdout, _, err := run(t, srv.URL, "y\n", "search", "kernal")

	// Then: the corrected query is submitted and its rows are printed
	require.NoError(t, err)
	assert.Contains(t, stdout, "Did you mean: kernel [y/N]")
	assert.Contains(t, stdout, "/docs/os/kernel.pdf")

	reqs := f.searchRequests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "kernel", reqs[1].Query)
}

func TestSearchCmd_DeclinedSuggestion(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)
	f.search = func(req client.SearchRequest) client.SearchResponse {
		return client.SearchResponse{Spellchecked: "kernel"}
	}

	stdout, _, err := run(t, srv.URL, "n\n", "search", "kernal")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Did you mean: kernel [y/N]")
	assert.Len(t, f.searchRequests(), 1)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)
	f.search = kernelResults
	f.tags["/docs/os/kernel.pdf"] = []string{"os"}

	stdout, _, err := run(t, srv.URL, "", "search", "kernel", "--json")
	require.NoError(t, err)

	var got jsonResults
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "kernel", got.Query)
	assert.Equal(t, "available", got.Tagging)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "/docs/os/kernel.pdf", got.Results[0].Path)
	assert.Equal(t, []string{"kernel"}, got.Results[0].MatchTerms)
	require.NotNil(t, got.Results[0].Tag)
	assert.Equal(t, "os", *got.Results[0].Tag)
}

func TestSearchCmd_RecordsHistory(t *testing.T) {
	isolateHome(t)
	f, srv := newFakeService(t)
	f.search = kernelResults

	_, _, err := run(t, srv.URL, "", "search", "kernel")
	require.NoError(t, err)

	stdout, _, err := run(t, srv.URL, "", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kernel")
	assert.Contains(t, lines[0], "1 result(s)")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	isolateHome(t)
	_, srv := newFakeService(t)

	_, _, err := run(t, srv.URL, "", "search")
	assert.Error(t, err)
}
