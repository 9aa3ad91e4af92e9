package store

import (
	"context"
	"iter"
	"sync"
)

// pendingOp is one in-flight operation awaiting worker replies, keyed by its
// correlation ID. Exactly one of completion/results is set.
type pendingOp struct {
	id         uint64
	completion *Completion
	results    *Results
}

// Completion is the pending handle returned by AddEntry. It resolves exactly
// once, when the worker acknowledges the append or the store closes.
type Completion struct {
	once sync.Once
	err  error
	done chan struct{}
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) resolve(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Wait blocks until the append is acknowledged, the store closes, or ctx
// expires. It may be called any number of times.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel that is closed once the append has resolved.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Results is the pending handle returned by Find: a lazy, finite,
// non-restartable sequence of matching values in insertion order. Values
// queue inside the handle without bound, so a slow or absent consumer never
// blocks reply dispatch for other operations.
type Results struct {
	mu    sync.Mutex
	queue []string
	done  bool
	err   error

	// 1-buffered wakeup signal. Coalesced signals are fine: the consumer
	// re-checks the queue on every wake.
	ready chan struct{}
}

func newResults() *Results {
	return &Results{ready: make(chan struct{}, 1)}
}

// push appends one value. Called only by reply dispatch; never blocks. No
// value arrives after the sequence has terminated.
func (r *Results) push(value string) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, value)
	r.mu.Unlock()
	r.signal()
}

// finish terminates the sequence. Idempotent; the first terminal error wins.
func (r *Results) finish(err error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	r.err = err
	r.mu.Unlock()
	r.signal()
}

func (r *Results) signal() {
	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// next pops the oldest value, waiting until one arrives, the sequence
// terminates, or ctx expires.
func (r *Results) next(ctx context.Context) (string, bool, error) {
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			value := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return value, true, nil
		}
		if r.done {
			err := r.err
			r.mu.Unlock()
			return "", false, err
		}
		r.mu.Unlock()

		select {
		case <-r.ready:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

// All returns an iterator over the matching values. The sequence is consumed
// as it is iterated and cannot be restarted. Breaking out early simply
// abandons the rest.
func (r *Results) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			value, ok, _ := r.next(context.Background())
			if !ok {
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}

// Collect gathers the whole sequence into a slice, honoring ctx while
// waiting. A scan with no matches yields an empty, non-nil slice.
func (r *Results) Collect(ctx context.Context) ([]string, error) {
	values := make([]string, 0, 1)
	for {
		value, ok, err := r.next(ctx)
		if !ok {
			return values, err
		}
		values = append(values, value)
	}
}

// Err reports how the sequence terminated. Valid only after the sequence has
// been fully consumed.
func (r *Results) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
