// File: session/inbox.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// inbox decouples the channel's reader goroutine, which must never block,
// from message dispatch, which parses JSON and runs callbacks. The channel
// hands raw payloads to inbox.push, a single dispatch goroutine drains it
// with inbox.pop. This is the one place this module reuses the teacher's
// queue dependency (originally the backlog for its worker-pool executor,
// internal/concurrency/executor.go) — the shape of the problem, an
// unbounded single-producer/single-consumer backlog behind a condition
// variable, is the same one here.
package session

import (
	"sync"

	"github.com/eapache/queue"
)

type inboundMessage struct {
	payload []byte
	isText  bool
}

type inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      *queue.Queue
	closed bool
}

func newInbox() *inbox {
	b := &inbox{q: queue.New()}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *inbox) push(msg inboundMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.q.Add(msg)
	b.cond.Signal()
}

// pop blocks until a message is available or the inbox is closed, in which
// case ok is false.
func (b *inbox) pop() (msg inboundMessage, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.q.Length() == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.q.Length() == 0 {
		return inboundMessage{}, false
	}
	msg = b.q.Peek().(inboundMessage)
	b.q.Remove()
	return msg, true
}

func (b *inbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}
