package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/davidvella/entrystore/recordio"
)

func openStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Close(ctx)
	})
	return s
}

func TestStore_AddAndFind(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.AddEntry("alpha").Wait(ctx))
	require.NoError(t, s.AddEntry("beta").Wait(ctx))

	got, err := s.Find("a").Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, got)

	got, err = s.Find("z").Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_FindSubstringFilter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	entries := []string{"apple pie", "banana", "cherry", "pineapple"}
	for _, e := range entries {
		require.NoError(t, s.AddEntry(e).Wait(ctx))
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "common substring", query: "apple", want: []string{"apple pie", "pineapple"}},
		{name: "single entry", query: "ban", want: []string{"banana"}},
		{name: "empty query matches all", query: "", want: entries},
		{name: "no match", query: "durian", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Find(tt.query).Collect(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	values := []string{"plain", "héllo wörld ✓", "", strings.Repeat("x", recordio.EntrySize)}
	for _, v := range values {
		require.NoError(t, s.AddEntry(v).Wait(ctx))
	}

	got, err := s.Find("").Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestStore_TruncatesOverLengthValues(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	long := strings.Repeat("v", recordio.EntrySize+100)
	require.NoError(t, s.AddEntry(long).Wait(ctx))

	got, err := s.Find("").Collect(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, long[:recordio.EntrySize], got[0])
}

func TestStore_EmptyStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	// Nothing has been added, so the file does not exist yet.
	got, err := s.Find("anything").Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_CompletionFIFO(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	a := s.AddEntry("a")
	b := s.AddEntry("b")

	require.NoError(t, b.Wait(ctx))

	// The worker is serial and dispatch resolves in reply order, so by the
	// time b has resolved, a must have as well.
	select {
	case <-a.Done():
	default:
		t.Fatal("a should resolve strictly before b")
	}
	assert.NoError(t, a.Wait(ctx))
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	const n = 20
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			return s.AddEntry(fmt.Sprintf("entry-%02d", i)).Wait(ctx)
		})
	}
	require.NoError(t, g.Wait())

	got, err := s.Find("entry-").Collect(ctx)
	require.NoError(t, err)
	assert.Len(t, got, n)
}

func TestStore_OverlappingFinds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.AddEntry("alpha").Wait(ctx))
	require.NoError(t, s.AddEntry("beta").Wait(ctx))
	require.NoError(t, s.AddEntry("gamma").Wait(ctx))

	// Both scans are in flight before either is consumed. Correlation IDs
	// keep their results apart regardless of consumption order.
	first := s.Find("a")
	second := s.Find("beta")

	gotSecond, err := second.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, gotSecond)

	gotFirst, err := first.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, gotFirst)
}

func TestStore_OverlappingFindsConsumedInReverse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := openStore(t)

	const n = 42
	want := make([]string, 0, n)
	for i := range n {
		value := fmt.Sprintf("entry-%02d", i)
		want = append(want, value)
		require.NoError(t, s.AddEntry(value).Wait(ctx))
	}

	// Both scans are in flight before either is consumed, and the larger
	// one is consumed second. Its results must queue in the handle rather
	// than wedge dispatch, or the smaller scan never terminates.
	first := s.Find("entry-")
	second := s.Find("entry-05")

	gotSecond, err := second.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"entry-05"}, gotSecond)

	gotFirst, err := first.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, gotFirst)
}

func TestStore_IgnoredFindDoesNotWedge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := openStore(t)

	const n = 50
	for i := range n {
		require.NoError(t, s.AddEntry(fmt.Sprintf("entry-%02d", i)).Wait(ctx))
	}

	// Never iterated, never cancelled. The store must keep working.
	_ = s.Find("")

	require.NoError(t, s.AddEntry("straggler").Wait(ctx))

	got, err := s.Find("straggler").Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"straggler"}, got)
}

func TestStore_CloseUnderLoad(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)

	// Adds racing Close must all resolve: either the worker drained them
	// or they fail with ErrStoreClosed. None may hang.
	var g errgroup.Group
	for i := range 100 {
		g.Go(func() error {
			err := s.AddEntry(fmt.Sprintf("entry-%03d", i)).Wait(ctx)
			if err != nil && !errors.Is(err, ErrStoreClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		return s.Close(ctx)
	})

	require.NoError(t, g.Wait())
}

func TestStore_FindAll(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.AddEntry("one").Wait(ctx))
	require.NoError(t, s.AddEntry("two").Wait(ctx))
	require.NoError(t, s.AddEntry("three").Wait(ctx))

	results := s.Find("")
	var got []string
	for value := range results.All() {
		got = append(got, value)
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
	assert.NoError(t, results.Err())
}

func TestStore_FindAllEarlyStop(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for i := range 10 {
		require.NoError(t, s.AddEntry(fmt.Sprintf("entry-%d", i)).Wait(ctx))
	}

	results := s.Find("")
	var got []string
	for value := range results.All() {
		got = append(got, value)
		if len(got) == 3 {
			break
		}
	}
	assert.Len(t, got, 3)

	// Abandoning one sequence must not wedge the store.
	more, err := s.Find("entry-9").Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"entry-9"}, more)
}

func TestStore_AppendErrorSurfaces(t *testing.T) {
	ctx := context.Background()

	// A directory at the store path makes every append fail.
	s, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close(ctx)

	err = s.AddEntry("alpha").Wait(ctx)
	assert.Error(t, err)
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	c := s.AddEntry("alpha")
	require.NoError(t, s.Close(ctx))

	// The add was submitted before Close, so the worker drained it.
	assert.NoError(t, c.Wait(ctx))

	// Everything after Close fails fast.
	assert.ErrorIs(t, s.AddEntry("beta").Wait(ctx), ErrStoreClosed)

	_, err = s.Find("a").Collect(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)

	assert.ErrorIs(t, s.Close(ctx), ErrStoreClosed)
}

func TestStore_OpenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The worker may still win the race, but a cancelled context must
	// never produce a hang; either outcome is acceptable, a hang is not.
	s, err := Open(ctx, filepath.Join(t.TempDir(), "store.db"))
	if err == nil {
		require.NoError(t, s.Close(context.Background()))
		return
	}
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompletion_WaitHonorsContext(t *testing.T) {
	c := newCompletion()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.Canceled)

	c.resolve(nil)
	assert.NoError(t, c.Wait(context.Background()))

	// Resolution sticks: later resolves are ignored.
	c.resolve(ErrStoreClosed)
	assert.NoError(t, c.Wait(context.Background()))
}
