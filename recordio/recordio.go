package recordio

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// EntrySize is the width in bytes of every slot on disk. External readers
// must know this value out of band; changing it breaks compatibility with
// existing files.
const EntrySize = 256

// Encode converts a value into one EntrySize-byte slot. Values longer than
// EntrySize encoded bytes are truncated; shorter values are zero-padded.
func Encode(value string) []byte {
	slot := make([]byte, EntrySize)
	copy(slot, value)
	return slot
}

// Decode converts one slot back into a value, taking the leading run of
// non-zero bytes.
func Decode(slot []byte) string {
	n := 0
	for n < len(slot) && slot[n] != 0 {
		n++
	}
	return string(slot[:n])
}

// Write writes a single value to the writer as one slot.
func Write(w io.Writer, value string) (int64, error) {
	n, err := w.Write(Encode(value))
	if err != nil {
		return int64(n), fmt.Errorf("error writing slot: %w", err)
	}
	return int64(n), nil
}

// Read reads a single slot from the reader. A short or empty read is
// reported as io.EOF: a partial trailing slot marks the end of the stream.
func Read(r io.Reader) (string, error) {
	slot := make([]byte, EntrySize)
	if _, err := io.ReadFull(r, slot); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("error reading slot: %w", err)
	}
	return Decode(slot), nil
}

// Seq creates an iterator over all values in the reader, in file order.
func Seq(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			value, err := Read(r)
			if err != nil {
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}

// ReadAll reads all values into a slice.
func ReadAll(r io.Reader) []string {
	values := make([]string, 0, 1)
	for value := range Seq(r) {
		values = append(values, value)
	}
	return values
}
