package fcb

import (
	"bytes"

	"github.com/StackCanary/os-filesystem/internal/fserr"
	"github.com/StackCanary/os-filesystem/internal/store"
)

// DirEntrySize is the fixed on-disk size of one directory entry: 240
// zero-padded filename bytes plus a 16-byte target key.
const DirEntrySize = 256

// MaxNameLen is the longest filename this filesystem accepts, including
// the implicit NUL terminator.
const MaxNameLen = 240

// DirEntry is one fixed-size slot in a directory's packed entry array.
type DirEntry struct {
	Name   [MaxNameLen]byte
	Target store.Key
}

// NewDirEntry builds a DirEntry for name pointing at target. It returns
// fserr.ErrNameTooLong if name (plus its terminator) would not fit.
func NewDirEntry(name string, target store.Key) (DirEntry, error) {
	var e DirEntry
	if len(name) > MaxNameLen-1 {
		return e, fserr.ErrNameTooLong
	}
	copy(e.Name[:], name)
	e.Target = target
	return e, nil
}

// NameString returns the entry's filename as a Go string, trimmed at the
// first NUL byte.
func (e DirEntry) NameString() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}

// Encode serializes e into its fixed 256-byte on-disk representation.
func (e DirEntry) Encode() []byte {
	buf := make([]byte, DirEntrySize)
	copy(buf, e.Name[:])
	copy(buf[MaxNameLen:], e.Target[:])
	return buf
}

// DecodeDirEntry parses one 256-byte slot from a packed directory array.
func DecodeDirEntry(b []byte) DirEntry {
	var e DirEntry
	copy(e.Name[:], b[:MaxNameLen])
	copy(e.Target[:], b[MaxNameLen:DirEntrySize])
	return e
}

// DecodeDirEntries splits a directory's full packed payload into its
// constituent entries.
func DecodeDirEntries(b []byte) []DirEntry {
	n := len(b) / DirEntrySize
	out := make([]DirEntry, n)
	for i := 0; i < n; i++ {
		out[i] = DecodeDirEntry(b[i*DirEntrySize : (i+1)*DirEntrySize])
	}
	return out
}
