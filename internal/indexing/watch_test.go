package indexing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirmes/hirmes/internal/client"
	"github.com/hirmes/hirmes/internal/watcher"
)

func TestWatch_ResubmitsWithoutReplace(t *testing.T) {
	m := &fakeModal{answer: true}
	idx := &fakeIndexer{resp: &client.IndexResponse{IndexedCount: 1}}
	o := New(idx, m, newReporter(&progressLog{}))

	batches := make(chan []watcher.FileEvent, 2)
	batches <- []watcher.FileEvent{{Path: "a.pdf", Operation: watcher.OpCreate}}
	batches <- []watcher.FileEvent{{Path: "b.pdf", Operation: watcher.OpModify}}
	close(batches)

	err := o.Watch(context.Background(), batches, client.IndexRequest{Path: "/docs", Recursive: true, ReplaceFilename: true})
	require.NoError(t, err)

	require.Len(t, idx.calls, 2)
	for _, call := range idx.calls {
		assert.False(t, call.ReplaceFilename)
		assert.True(t, call.Recursive)
	}
	assert.Empty(t, m.confirms, "re-runs are never destructive")
}

func TestWatch_ContinuesAfterFailure(t *testing.T) {
	m := &fakeModal{}
	idx := &fakeIndexer{err: errors.New("boom")}
	o := New(idx, m, newReporter(&progressLog{}))

	batches := make(chan []watcher.FileEvent, 2)
	batches <- []watcher.FileEvent{{Path: "a.pdf"}}
	batches <- []watcher.FileEvent{{Path: "a.pdf"}}
	close(batches)

	require.NoError(t, o.Watch(context.Background(), batches, client.IndexRequest{Path: "/docs"}))
	assert.Len(t, idx.calls, 2)
}

func TestWatch_StopsOnContext(t *testing.T) {
	o := New(&fakeIndexer{}, &fakeModal{}, newReporter(&progressLog{}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := o.Watch(ctx, make(chan []watcher.FileEvent), client.IndexRequest{Path: "/docs"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
