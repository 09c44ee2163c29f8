package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hirmes/hirmes/internal/client"
)

// fakeService is an in-process Hirmes backend.
type fakeService struct {
	mu       sync.Mutex
	searches []client.SearchRequest
	indexed  []client.IndexRequest
	opened   []string

	search   func(req client.SearchRequest) client.SearchResponse
	tagging  bool
	tags     map[string][]string
	indexErr string
	openErr  string
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	f := &fakeService{tagging: true, tags: map[string][]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", func(w http.ResponseWriter, r *http.Request) {
		var req client.SearchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.searches = append(f.searches, req)
		fn := f.search
		f.mu.Unlock()

		resp := client.SearchResponse{Results: []client.ResultRow{}}
		if fn != nil {
			resp = fn(req)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("OPTIONS /tagging/check", func(w http.ResponseWriter, _ *http.Request) {
		if !f.tagging {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /tagging/tags", func(w http.ResponseWriter, r *http.Request) {
		var req client.TagRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		tags := f.tags[req.Path]
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"tag": tags})
	})
	mux.HandleFunc("POST /indexing", func(w http.ResponseWriter, r *http.Request) {
		var req client.IndexRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.indexed = append(f.indexed, req)
		msg := f.indexErr
		f.mu.Unlock()
		if msg != "" {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}
		_ = json.NewEncoder(w).Encode(client.IndexResponse{IndexedCount: 3})
	})
	mux.HandleFunc("POST /open-file", func(w http.ResponseWriter, r *http.Request) {
		var req client.OpenFileRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.opened = append(f.opened, req.Path)
		msg := f.openErr
		f.mu.Unlock()
		if msg != "" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeService) searchRequests() []client.SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.SearchRequest(nil), f.searches...)
}

func (f *fakeService) indexRequests() []client.IndexRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.IndexRequest(nil), f.indexed...)
}

// isolateHome points every per-user path at a temp directory and writes a
// config with fast progress timings.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, v := range []string{"HIRMES_SERVER_URL", "HIRMES_TIMEOUT", "HIRMES_LOG_LEVEL",
		"HIRMES_TAGGING_ENABLED", "HIRMES_REJECT_EMPTY_QUERY", "HIRMES_HISTORY_ENABLED"} {
		t.Setenv(v, "")
	}

	cfgPath := filepath.Join(home, ".config", "hirmes", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`progress:
  interval: 5ms
  hide_delay: 5ms
watch:
  debounce: 50ms
`), 0o644))
	return home
}

// run executes the root command with args against srv and returns stdout
// and stderr.
func run(t *testing.T, srvURL, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	if srvURL != "" {
		args = append([]string{"--server", srvURL, "--no-tui"}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return stdout.String(), stderr.String(), err
}
