// Package watcher watches a document tree for changes and emits debounced
// batches, used to re-index a path while `hirmes index --watch` runs.
//
// Usage:
//
//	w, err := watcher.New(watcher.Options{Recursive: true})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx, "/path/to/documents")
//	for batch := range w.Events() {
//	    // re-index
//	}
package watcher
