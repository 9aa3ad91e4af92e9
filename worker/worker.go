// Package worker implements the execution context that owns all file I/O for
// an entry store. A worker processes requests strictly one at a time, in
// arrival order, so the store file is never touched concurrently.
package worker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/davidvella/entrystore/message"
	"github.com/davidvella/entrystore/recordio"
)

// requestBacklog bounds how many requests may queue ahead of the worker
// before senders block.
const requestBacklog = 64

type worker struct {
	replies chan<- message.Reply
	logger  *slog.Logger

	// Set by the Init request; the worker stays uninitialized and drops
	// operations until it arrives.
	path  string
	debug bool
	ready bool
}

// Spawn starts a worker goroutine. The worker allocates its own request
// channel and announces it with a Ready reply before anything else. It owns
// the reply channel and closes it when it exits.
func Spawn(replies chan<- message.Reply, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &worker{replies: replies, logger: logger}
	go w.run()
}

func (w *worker) run() {
	defer close(w.replies)

	requests := make(chan message.Request, requestBacklog)
	w.replies <- message.Ready{Requests: requests}

	for req := range requests {
		switch m := req.(type) {
		case message.Init:
			w.path = m.Path
			w.debug = m.Debug
			w.ready = true
			w.logf("store worker ready", "path", w.path)
		case message.Add:
			if !w.ready {
				w.logf("dropping add before init", "id", m.ID)
				continue
			}
			w.append(m)
		case message.Query:
			if !w.ready {
				w.logf("dropping query before init", "id", m.ID)
				continue
			}
			w.scan(m)
		case message.Shutdown:
			w.logf("store worker shutting down", "path", w.path)
			w.replies <- message.Closed{}
			return
		}
	}
}

// append writes one fixed-size slot to the end of the store file, creating
// the file if absent, and acknowledges the request. An I/O failure is fatal
// to this request only; it travels back on the Ack.
func (w *worker) append(m message.Add) {
	err := w.writeSlot(m.Value)
	if err != nil {
		w.logf("append failed", "id", m.ID, "error", err)
	} else {
		w.logf("appended entry", "id", m.ID)
	}
	w.replies <- message.Ack{ID: m.ID, Err: err}
}

func (w *worker) writeSlot(value string) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open store file: %w", err)
	}

	if _, err := recordio.Write(f, value); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// scan reads the store file slot by slot, emitting one Result per value that
// contains the query as a substring, then exactly one Done. A missing file
// is not an error: it yields zero results.
func (w *worker) scan(m message.Query) {
	f, err := os.Open(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.logf("scan against missing file", "id", m.ID)
			w.replies <- message.Done{ID: m.ID}
			return
		}
		w.replies <- message.Done{ID: m.ID, Err: fmt.Errorf("failed to open store file: %w", err)}
		return
	}
	defer f.Close()

	matched := 0
	for {
		value, err := recordio.Read(f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			w.replies <- message.Done{ID: m.ID, Err: err}
			return
		}
		if strings.Contains(value, m.Text) {
			w.replies <- message.Result{ID: m.ID, Value: value}
			matched++
		}
	}

	w.logf("scan complete", "id", m.ID, "matched", matched)
	w.replies <- message.Done{ID: m.ID}
}

func (w *worker) logf(msg string, args ...any) {
	if !w.debug {
		return
	}
	w.logger.Debug(msg, args...)
}
