package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Endpoint paths exposed by the Hirmes service.
const (
	EndpointIndexing     = "/indexing"
	EndpointSearch       = "/search"
	EndpointTaggingCheck = "/tagging/check"
	EndpointTaggingTags  = "/tagging/tags"
	EndpointOpenFile     = "/open-file"
)

// IndexRequest asks the service to index a path.
type IndexRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
	// ReplaceFilename is destructive: the service rewrites existing entries
	// for matching filenames. Callers must confirm it with the user.
	ReplaceFilename bool `json:"replace_filename"`
}

// Validate checks that the request has a path.
func (r IndexRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// IndexResponse reports how many files were indexed.
type IndexResponse struct {
	IndexedCount int    `json:"indexed_count"`
	Error        string `json:"error,omitempty"`
}

// SearchRequest is a query submission.
type SearchRequest struct {
	Query    string `json:"query"`
	FullText bool   `json:"full_text"`
}

// ResultRow is one search hit as sent by the service.
type ResultRow struct {
	Path        string   `json:"path"`
	PageNumbers []int    `json:"page_numbers"`
	MatchTerms  []string `json:"match_terms"`
	Snippets    []string `json:"snippet"`
}

// SearchResponse carries either results or an error message.
type SearchResponse struct {
	Results      []ResultRow `json:"results"`
	Spellchecked string      `json:"spellchecked,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// TagRequest asks for the tags of one document.
type TagRequest struct {
	Path string `json:"path"`
}

// TagResponse holds a document's tags. The service sends either a single
// string or a list; both decode into Tag.
type TagResponse struct {
	Tag Tag `json:"tag"`
}

// Tag is a display-ready tag value.
type Tag string

// UnmarshalJSON accepts a string, a list of strings, or null.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Tag(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tag must be a string or list of strings: %w", err)
	}
	*t = Tag(strings.Join(list, ", "))
	return nil
}

// OpenFileRequest asks the service to open a document with the desktop handler.
type OpenFileRequest struct {
	Path string `json:"path"`
}

// errorBody is the shape of any failed response body.
type errorBody struct {
	Error string `json:"error"`
}
