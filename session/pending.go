// File: session/pending.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// pendingTable correlates outgoing requests with their eventual responses,
// grounded on the reference connection's pendingCallbacks_/pendingPromises_
// maps: a request is either fire-and-forget with a callback, or synchronous
// and waited on — represented here as a single tagged entry instead of two
// parallel maps, since Go's channels make the synchronous case just another
// callback that signals a channel.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/corvidlabs/cdpgo/cdperr"
)

// Response is the result of a single CDP call.
type Response struct {
	ID     int64
	Result json.RawMessage
	Err    *cdperr.Error
}

// ResponseHandler receives the eventual response to an asynchronous call.
// The ctx passed in is marked as originating from the dispatch goroutine;
// passing it to SendSync lets SendSync detect and reject a reentrant
// synchronous call that would otherwise deadlock waiting on itself.
type ResponseHandler func(ctx context.Context, resp Response)

type pendingTable struct {
	mu      sync.Mutex
	entries map[int64]ResponseHandler
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[int64]ResponseHandler)}
}

func (t *pendingTable) register(id int64, handler ResponseHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = handler
}

// resolve looks up and removes the handler for id, returning it and whether
// one was registered.
func (t *pendingTable) resolve(id int64) (ResponseHandler, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return h, ok
}

// failAll resolves every pending entry with a connection-kind error,
// invoked when the underlying channel is lost or the session is closed.
func (t *pendingTable) failAll(ctx context.Context, err *cdperr.Error) {
	t.mu.Lock()
	drained := t.entries
	t.entries = make(map[int64]ResponseHandler)
	t.mu.Unlock()

	for id, h := range drained {
		h(ctx, Response{ID: id, Err: err})
	}
}

func (t *pendingTable) pendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
