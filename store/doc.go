// Package store provides the caller-facing handle to an append-only,
// fixed-record-length string store. All file I/O happens in a dedicated
// worker goroutine; the handle translates method calls into protocol
// messages and routes the worker's replies back to the right pending
// caller by correlation ID.
//
// The store supports exactly three operations plus teardown:
//
//	s, err := store.Open(ctx, "entries.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Append an entry. AddEntry never blocks; Wait does.
//	if err := s.AddEntry("alpha").Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Stream every entry containing "a", in insertion order.
//	results := s.Find("a")
//	for value := range results.All() {
//	    fmt.Println(value)
//	}
//	if err := results.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := s.Close(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// A Results sequence is lazy, finite and non-restartable: values arrive as
// the worker scans the file and the sequence ends when the scan completes.
// Values queue inside the handle without bound, so a slow or abandoned
// consumer never stalls reply dispatch for other operations.
//
// Close is a graceful shutdown: requests already submitted are drained by
// the worker first, and any operation still pending afterwards fails with
// ErrStoreClosed rather than hanging.
package store
