package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/davidvella/entrystore/message"
	"github.com/davidvella/entrystore/worker"
)

// replyBacklog bounds how many replies may queue ahead of the dispatch loop
// before the worker blocks.
const replyBacklog = 64

// ErrStoreClosed is reported by every operation issued against a closed
// store, and resolves any operation still pending when the store closes.
var ErrStoreClosed = errors.New("store is closed")

// Store is the open connection to an entry store. It is safe for concurrent
// use; all file I/O happens in the worker goroutine it was opened with.
type Store struct {
	requests chan<- message.Request
	replies  chan message.Reply

	mu      sync.Mutex
	pending *btree.BTreeG[*pendingOp]
	nextID  uint64
	closed  bool

	// Closed by the dispatch loop once the worker's reply channel is
	// exhausted and every straggling operation has been failed.
	dispatchDone chan struct{}
}

// Open spawns a store worker for the file at path, completes the handshake
// and returns the ready handle. The worker announces its request channel
// first; a worker that never does so turns into an error once ctx expires
// instead of hanging the caller.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	replies := make(chan message.Reply, replyBacklog)
	worker.Spawn(replies, o.logger)

	var ready message.Ready
	select {
	case reply, ok := <-replies:
		if !ok {
			return nil, errors.New("store worker exited during handshake")
		}
		r, isReady := reply.(message.Ready)
		if !isReady {
			return nil, fmt.Errorf("unexpected handshake reply %T", reply)
		}
		ready = r
	case <-ctx.Done():
		go reap(replies)
		return nil, fmt.Errorf("store worker never announced itself: %w", ctx.Err())
	}

	s := &Store{
		requests: ready.Requests,
		replies:  replies,
		pending: btree.NewG[*pendingOp](2, func(a, b *pendingOp) bool {
			return a.id < b.id
		}),
		dispatchDone: make(chan struct{}),
	}

	ready.Requests <- message.Init{Path: path, Debug: o.debug}
	go s.dispatch()

	return s, nil
}

// reap shuts down a worker whose handshake outlived the caller's patience.
func reap(replies <-chan message.Reply) {
	for reply := range replies {
		if r, ok := reply.(message.Ready); ok {
			r.Requests <- message.Shutdown{}
		}
	}
}

// AddEntry appends value to the store. It enqueues the request and returns
// immediately; the returned Completion resolves once the worker has written
// the record, in the same order concurrent AddEntry calls were issued.
func (s *Store) AddEntry(value string) *Completion {
	c := newCompletion()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.resolve(ErrStoreClosed)
		return c
	}
	id := s.register(&pendingOp{completion: c})
	s.mu.Unlock()

	if !s.send(message.Add{ID: id, Value: value}) {
		c.resolve(ErrStoreClosed)
	}
	return c
}

// Find scans the store for entries containing query as a substring, in
// insertion order. The empty query matches every entry. It enqueues the
// request and returns immediately; values arrive on the Results sequence as
// the worker scans. A store opened over a nonexistent path yields an empty
// sequence, not an error.
func (s *Store) Find(query string) *Results {
	r := newResults()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		r.finish(ErrStoreClosed)
		return r
	}
	id := s.register(&pendingOp{results: r})
	s.mu.Unlock()

	if !s.send(message.Query{ID: id, Text: query}) {
		r.finish(ErrStoreClosed)
	}
	return r
}

// Close shuts the store down gracefully: no new operations are accepted,
// the worker drains everything already submitted and exits, and any
// operation left pending fails with ErrStoreClosed. Close returns once the
// worker is gone or ctx expires; on expiry the teardown keeps running in
// the background.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.requests <- message.Shutdown{}

	select {
	case <-s.dispatchDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send delivers a request to the worker, giving up if the worker is already
// gone. A burst of calls racing Close can otherwise stack up behind the
// Shutdown in the request buffer and block forever on a channel nobody
// reads. The registered op is failed by the caller on false; failPending may
// have beaten it to the resolution, which is harmless.
func (s *Store) send(req message.Request) bool {
	select {
	case s.requests <- req:
		return true
	case <-s.dispatchDone:
		return false
	}
}

// register assigns the next correlation ID and files the op. Caller holds mu.
func (s *Store) register(op *pendingOp) uint64 {
	s.nextID++
	op.id = s.nextID
	s.pending.ReplaceOrInsert(op)
	return op.id
}

// take removes and returns the pending op with the given ID, if any.
func (s *Store) take(id uint64) (*pendingOp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Delete(&pendingOp{id: id})
}

// lookup returns the pending op with the given ID without removing it.
func (s *Store) lookup(id uint64) (*pendingOp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Get(&pendingOp{id: id})
}

// dispatch runs for the lifetime of the handle: it receives each reply from
// the worker and routes it to the pending op carrying the echoed ID. When
// the worker closes its reply channel the loop fails whatever is left, in
// issue order.
func (s *Store) dispatch() {
	for reply := range s.replies {
		switch m := reply.(type) {
		case message.Ack:
			if op, ok := s.take(m.ID); ok {
				op.completion.resolve(m.Err)
			}
		case message.Result:
			if op, ok := s.lookup(m.ID); ok {
				op.results.push(m.Value)
			}
		case message.Done:
			if op, ok := s.take(m.ID); ok {
				op.results.finish(m.Err)
			}
		case message.Closed:
			// Final reply; the channel close follows immediately.
		}
	}

	s.failPending()
	close(s.dispatchDone)
}

// failPending resolves every operation still in the registry with
// ErrStoreClosed so no caller is left hanging after shutdown.
func (s *Store) failPending() {
	s.mu.Lock()
	stragglers := make([]*pendingOp, 0, s.pending.Len())
	s.pending.Ascend(func(op *pendingOp) bool {
		stragglers = append(stragglers, op)
		return true
	})
	s.pending.Clear(false)
	s.closed = true
	s.mu.Unlock()

	for _, op := range stragglers {
		switch {
		case op.completion != nil:
			op.completion.resolve(ErrStoreClosed)
		case op.results != nil:
			op.results.finish(ErrStoreClosed)
		}
	}
}
