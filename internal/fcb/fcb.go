// Package fcb defines the on-disk file control block and directory
// entry records, and their fixed-width binary encodings. Both records
// are fixed size so the data-model invariants in spec.md §3 hold: a
// directory's payload length is always size*256, and an FCB's on-disk
// size never varies between reads.
package fcb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/StackCanary/os-filesystem/internal/fserr"
	"github.com/StackCanary/os-filesystem/internal/store"
)

// Block layout constants, shared with internal/blocks.
const (
	BlockSize       = 4096
	DirectBlocks    = 13
	IndirectEntries = BlockSize / 16 // 256 keys per indirect block
)

// FCB is the fixed-size file control block: one record per filesystem
// object, regular file or directory.
type FCB struct {
	DataKey store.Key

	UID, GID uint32
	Mode     uint32

	Atime, Mtime, Ctime int64

	Nlink uint32
	Size  uint64

	Direct         [DirectBlocks]store.Key
	SingleIndirect store.Key
	DoubleIndirect store.Key
}

// wireFCB mirrors FCB field-for-field; binary.Write/Read only work on
// fixed-width types, so this avoids ranging over a struct with methods.
type wireFCB struct {
	DataKey  store.Key
	UID, GID uint32
	Mode     uint32
	Atime    int64
	Mtime    int64
	Ctime    int64
	Nlink    uint32
	Size     uint64
	Direct   [DirectBlocks]store.Key
	Single   store.Key
	Double   store.Key
}

// EncodedSize is the fixed byte length of an encoded FCB.
var EncodedSize = binary.Size(wireFCB{})

// Encode serializes f into its fixed-width on-disk representation.
func (f *FCB) Encode() []byte {
	w := wireFCB{
		DataKey: f.DataKey,
		UID:     f.UID,
		GID:     f.GID,
		Mode:    f.Mode,
		Atime:   f.Atime,
		Mtime:   f.Mtime,
		Ctime:   f.Ctime,
		Nlink:   f.Nlink,
		Size:    f.Size,
		Direct:  f.Direct,
		Single:  f.SingleIndirect,
		Double:  f.DoubleIndirect,
	}
	buf := new(bytes.Buffer)
	buf.Grow(EncodedSize)
	// Fixed-width fields only: this can never fail.
	_ = binary.Write(buf, binary.BigEndian, &w)
	return buf.Bytes()
}

// Decode parses an FCB from its fixed-width on-disk representation.
// It returns fserr.ErrInvalidState if b is not exactly EncodedSize bytes.
func Decode(b []byte) (*FCB, error) {
	if len(b) != EncodedSize {
		return nil, fserr.InvalidState(fmt.Sprintf("fcb record has %d bytes, want %d", len(b), EncodedSize))
	}
	var w wireFCB
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, &w); err != nil {
		return nil, fserr.InvalidState(err.Error())
	}
	return &FCB{
		DataKey:        w.DataKey,
		UID:            w.UID,
		GID:            w.GID,
		Mode:           w.Mode,
		Atime:          w.Atime,
		Mtime:          w.Mtime,
		Ctime:          w.Ctime,
		Nlink:          w.Nlink,
		Size:           w.Size,
		Direct:         w.Direct,
		SingleIndirect: w.Single,
		DoubleIndirect: w.Double,
	}, nil
}

// POSIX mode-word type bits this filesystem sets. Permission enforcement
// is explicitly out of scope (spec.md §1 non-goals); these bits are
// stored and reported, never checked.
const (
	ModeDir     = 0o040000
	ModeRegular = 0o100000
)

// IsDir reports whether the FCB's mode marks it as a directory.
func (f *FCB) IsDir() bool {
	return f.Mode&ModeDir != 0
}
