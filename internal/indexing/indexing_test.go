package indexing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirmes/hirmes/internal/client"
	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/internal/modal"
	"github.com/hirmes/hirmes/internal/progress"
	"github.com/hirmes/hirmes/internal/settings"
)

type fakeModal struct {
	mu       sync.Mutex
	answer   bool
	err      error
	confirms []string
	notices  []string
}

func (m *fakeModal) Notify(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, msg)
}

func (m *fakeModal) Confirm(_ context.Context, msg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirms = append(m.confirms, msg)
	return m.answer, m.err
}

type fakeIndexer struct {
	mu    sync.Mutex
	calls []client.IndexRequest
	resp  *client.IndexResponse
	err   error
}

func (f *fakeIndexer) Index(_ context.Context, req client.IndexRequest) (*client.IndexResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

type fakeSettings struct {
	saved []settings.Indexing
	err   error
}

func (f *fakeSettings) SaveIndexing(opts settings.Indexing) error {
	f.saved = append(f.saved, opts)
	return f.err
}

type progressLog struct {
	mu      sync.Mutex
	updates []progress.Update
}

func (p *progressLog) sink(u progress.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *progressLog) terminal() progress.Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.updates) - 1; i >= 0; i-- {
		if p.updates[i].Visible {
			return p.updates[i]
		}
	}
	return progress.Update{}
}

func newReporter(log *progressLog) *progress.Reporter {
	return progress.New(progress.Config{
		Interval:  time.Millisecond,
		Ceiling:   95,
		MaxStep:   10,
		HideDelay: time.Millisecond,
	}, log.sink)
}

func TestSubmit_Success(t *testing.T) {
	m := &fakeModal{}
	idx := &fakeIndexer{resp: &client.IndexResponse{IndexedCount: 4}}
	st := &fakeSettings{}
	plog := &progressLog{}

	o := New(idx, m, newReporter(plog), WithSettings(st))
	resp, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs", Recursive: true})

	require.NoError(t, err)
	assert.Equal(t, 4, resp.IndexedCount)
	assert.Empty(t, m.confirms, "non-destructive runs are not confirmed")
	assert.Equal(t, []string{"Indexed 4 file(s)."}, m.notices)
	assert.Equal(t, []settings.Indexing{{Path: "/docs", Recursive: true}}, st.saved)
	assert.Equal(t, progress.Update{Percent: 100, Label: "Completed!", Visible: true}, plog.terminal())
}

func TestSubmit_ReplaceFilenameAccepted(t *testing.T) {
	m := &fakeModal{answer: true}
	idx := &fakeIndexer{resp: &client.IndexResponse{IndexedCount: 1}}

	o := New(idx, m, newReporter(&progressLog{}))
	_, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs", ReplaceFilename: true})

	require.NoError(t, err)
	assert.Equal(t, []string{ReplaceWarning}, m.confirms)
	assert.Len(t, idx.calls, 1, "accepting leads to exactly one call")
}

func TestSubmit_ReplaceFilenameDeclined(t *testing.T) {
	m := &fakeModal{answer: false}
	idx := &fakeIndexer{}
	st := &fakeSettings{}
	plog := &progressLog{}

	o := New(idx, m, newReporter(plog), WithSettings(st))
	_, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs", ReplaceFilename: true})

	assert.ErrorIs(t, err, ErrDeclined)
	assert.Empty(t, idx.calls, "declining leads to zero calls")
	assert.Empty(t, m.notices)
	assert.Empty(t, st.saved)
	assert.Empty(t, plog.updates, "progress never started")
}

func TestSubmit_ConfirmCancelled(t *testing.T) {
	m := &fakeModal{err: context.Canceled}
	idx := &fakeIndexer{}

	o := New(idx, m, newReporter(&progressLog{}))
	_, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs", ReplaceFilename: true})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, idx.calls)
}

func TestSubmit_Failure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"transport", herrors.TransportError(client.EndpointIndexing, errors.New("refused")), "Indexing failed!"},
		{"service message", herrors.ServiceError(client.EndpointIndexing, http.StatusBadRequest, "Path does not exist."), "Path does not exist."},
		{"status only", herrors.ServiceError(client.EndpointIndexing, http.StatusInternalServerError, ""), "Indexing failed!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModal{}
			idx := &fakeIndexer{err: tt.err}
			st := &fakeSettings{}
			plog := &progressLog{}

			o := New(idx, m, newReporter(plog), WithSettings(st))
			_, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs"})

			require.Error(t, err)
			assert.Equal(t, []string{tt.want}, m.notices)
			assert.Empty(t, st.saved)
			assert.Len(t, idx.calls, 1, "no retries")
			assert.Equal(t, progress.Update{Percent: 0, Label: "Failed!", Visible: true}, plog.terminal())
		})
	}
}

func TestSubmit_SettingsErrorDoesNotFailRun(t *testing.T) {
	m := &fakeModal{}
	idx := &fakeIndexer{resp: &client.IndexResponse{IndexedCount: 2}}
	st := &fakeSettings{err: errors.New("disk full")}

	o := New(idx, m, newReporter(&progressLog{}), WithSettings(st))
	_, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Indexed 2 file(s)."}, m.notices)
}

func TestSubmit_WithModalService(t *testing.T) {
	svc := modal.New()
	idx := &fakeIndexer{resp: &client.IndexResponse{IndexedCount: 9}}
	o := New(idx, svc, newReporter(&progressLog{}))

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs", ReplaceFilename: true})
		done <- err
	}()

	require.Eventually(t, func() bool { return svc.State().Confirmable }, time.Second, time.Millisecond)
	assert.Equal(t, ReplaceWarning, svc.State().Message)
	svc.Accept()

	require.NoError(t, <-done)
	assert.Equal(t, "Indexed 9 file(s).", svc.State().Message)
	assert.False(t, svc.State().Confirmable)
}

func TestSubmit_LogsToInjectedLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	idx := &fakeIndexer{resp: &client.IndexResponse{IndexedCount: 2}}

	o := New(idx, &fakeModal{}, newReporter(&progressLog{}), WithLogger(logger))
	_, err := o.Submit(context.Background(), client.IndexRequest{Path: "/docs"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"index_started"`)
	assert.Contains(t, buf.String(), `"msg":"index_complete"`)
}
