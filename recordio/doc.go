// Package recordio implements the fixed-slot binary codec used by the entry
// store. Each record is one string value stored in a fixed-width slot of
// EntrySize bytes, so a store file is a flat concatenation of slots with no
// header, footer, or count field.
//
// Encoding: the UTF-8 bytes of the value, silently truncated at EntrySize
// bytes if longer (truncation may split a multi-byte rune; the decoded value
// then contains the dangling lead byte as invalid UTF-8, which is accepted
// behavior) and zero-padded to EntrySize if shorter.
//
// Decoding: the leading run of non-zero bytes of a slot, interpreted as UTF-8.
// A value therefore cannot contain a NUL byte.
//
// Basic usage:
//
//	var buf bytes.Buffer
//	if _, err := recordio.Write(&buf, "hello"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for value := range recordio.Seq(&buf) {
//	    fmt.Println(value)
//	}
//
// File Format:
// Each slot occupies exactly EntrySize bytes. A trailing partial slot (fewer
// than EntrySize bytes left in the file) is treated as end of stream, not as
// corruption; readers stop at the first short read.
package recordio
