// Package blocks implements the indirect-block addressing scheme: given
// an FCB and a logical block index, resolve the storage key that holds
// that block's data, extend the chain to make a new index addressable,
// and shrink it when an index becomes unreachable.
//
// Grounded on the original myfs.c add_block/rem_block/get_block_uuid
// family, with indirect-block wire encoding modeled on the other_examples
// ext2 reader/writer's encoding/binary-over-fixed-layout idiom.
package blocks

import (
	"bytes"
	"encoding/binary"

	"github.com/StackCanary/os-filesystem/internal/cache"
	"github.com/StackCanary/os-filesystem/internal/fcb"
	"github.com/StackCanary/os-filesystem/internal/fserr"
	"github.com/StackCanary/os-filesystem/internal/ids"
	"github.com/StackCanary/os-filesystem/internal/store"
)

const (
	// BlockSize is the fixed payload size of a data block or an
	// indirect block.
	BlockSize = fcb.BlockSize

	directBlocks    = fcb.DirectBlocks
	indirectEntries = fcb.IndirectEntries

	// singleIndirectLimit is the first logical index no longer
	// reachable through direct + single-indirect addressing.
	singleIndirectLimit = directBlocks + indirectEntries // 269

	// doubleIndirectLimit is the first logical index beyond what
	// double-indirect addressing can reach.
	doubleIndirectLimit = singleIndirectLimit + indirectEntries*indirectEntries // 65805
)

// Addressing resolves, extends and shrinks the block-addressing chain
// rooted at an FCB, reading and writing indirect and data blocks through
// the block cache.
type Addressing struct {
	store store.Store
	cache *cache.Cache
}

// New builds an Addressing layer over s and c.
func New(s store.Store, c *cache.Cache) *Addressing {
	return &Addressing{store: s, cache: c}
}

func zeroBlock() []byte {
	return make([]byte, BlockSize)
}

func encodeIndirect(keys [indirectEntries]store.Key) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(BlockSize)
	_ = binary.Write(buf, binary.BigEndian, &keys)
	return buf.Bytes()
}

func decodeIndirect(data []byte) ([indirectEntries]store.Key, error) {
	var keys [indirectEntries]store.Key
	if len(data) != BlockSize {
		return keys, fserr.InvalidState("indirect block has unexpected size")
	}
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &keys); err != nil {
		return keys, fserr.InvalidState(err.Error())
	}
	return keys, nil
}

func (a *Addressing) readIndirect(key store.Key) ([indirectEntries]store.Key, error) {
	data, ok, err := a.cache.Read(key)
	if err != nil {
		return [indirectEntries]store.Key{}, err
	}
	if !ok {
		return [indirectEntries]store.Key{}, fserr.InvalidState("missing indirect block")
	}
	return decodeIndirect(data)
}

func (a *Addressing) writeIndirect(key store.Key, keys [indirectEntries]store.Key) error {
	return a.cache.Write(key, encodeIndirect(keys))
}

// location classifies a logical block index.
type location int

const (
	locDirect location = iota
	locSingle
	locDouble
	locOutOfRange
)

func classify(i int) location {
	switch {
	case i < directBlocks:
		return locDirect
	case i < singleIndirectLimit:
		return locSingle
	case i < doubleIndirectLimit:
		return locDouble
	default:
		return locOutOfRange
	}
}

// Resolve returns the storage key addressed by logical block index i,
// which is the zero key if the slot has never been allocated.
func (a *Addressing) Resolve(f *fcb.FCB, i int) (store.Key, error) {
	switch classify(i) {
	case locDirect:
		return f.Direct[i], nil

	case locSingle:
		if f.SingleIndirect.IsZero() {
			return store.ZeroKey, nil
		}
		keys, err := a.readIndirect(f.SingleIndirect)
		if err != nil {
			return store.ZeroKey, err
		}
		return keys[i-directBlocks], nil

	case locDouble:
		if f.DoubleIndirect.IsZero() {
			return store.ZeroKey, nil
		}
		outer, err := a.readIndirect(f.DoubleIndirect)
		if err != nil {
			return store.ZeroKey, err
		}
		idx := i - singleIndirectLimit
		row, col := idx/indirectEntries, idx%indirectEntries
		if outer[row].IsZero() {
			return store.ZeroKey, nil
		}
		inner, err := a.readIndirect(outer[row])
		if err != nil {
			return store.ZeroKey, err
		}
		return inner[col], nil

	default:
		return store.ZeroKey, fserr.ErrFileTooLarge
	}
}

// ReadBlock fills a BlockSize-byte buffer from the key addressed by
// logical index i. An unallocated slot reads as all zeros.
func (a *Addressing) ReadBlock(f *fcb.FCB, i int) ([]byte, error) {
	key, err := a.Resolve(f, i)
	if err != nil {
		return nil, err
	}
	if key.IsZero() {
		return zeroBlock(), nil
	}
	data, ok, err := a.cache.Read(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return zeroBlock(), nil
	}
	return data, nil
}

// WriteBlock stores BlockSize bytes under the key addressed by logical
// index i. The index must already be addressable (call Extend first).
func (a *Addressing) WriteBlock(f *fcb.FCB, i int, data []byte) error {
	key, err := a.Resolve(f, i)
	if err != nil {
		return err
	}
	if key.IsZero() {
		return fserr.InvalidState("write to unallocated block")
	}
	return a.cache.Write(key, data)
}

// Extend allocates whatever chain entries are required to make logical
// index i addressable, including the single/double indirect blocks
// themselves on their first reference, and a fresh zeroed data block.
// Indices are taken to arrive in ascending order: an indirect table is
// allocated only when i is the first index it covers (13 for the
// single-indirect table, 269 for the double-indirect table, and the
// first index of each double-indirect row). Extending an index whose
// table was never allocated that way returns an error.
func (a *Addressing) Extend(f *fcb.FCB, i int) error {
	switch classify(i) {
	case locDirect:
		key := ids.New()
		if err := a.cache.Write(key, zeroBlock()); err != nil {
			return err
		}
		f.Direct[i] = key
		return nil

	case locSingle:
		if i == directBlocks {
			key := ids.New()
			if err := a.writeIndirect(key, [indirectEntries]store.Key{}); err != nil {
				return err
			}
			f.SingleIndirect = key
		}

		keys, err := a.readIndirect(f.SingleIndirect)
		if err != nil {
			return err
		}

		dataKey := ids.New()
		if err := a.cache.Write(dataKey, zeroBlock()); err != nil {
			return err
		}
		keys[i-directBlocks] = dataKey
		return a.writeIndirect(f.SingleIndirect, keys)

	case locDouble:
		idx := i - singleIndirectLimit
		row, col := idx/indirectEntries, idx%indirectEntries

		if idx == 0 {
			key := ids.New()
			if err := a.writeIndirect(key, [indirectEntries]store.Key{}); err != nil {
				return err
			}
			f.DoubleIndirect = key
		}

		outer, err := a.readIndirect(f.DoubleIndirect)
		if err != nil {
			return err
		}

		if col == 0 {
			rowKey := ids.New()
			if err := a.writeIndirect(rowKey, [indirectEntries]store.Key{}); err != nil {
				return err
			}
			outer[row] = rowKey
			if err := a.writeIndirect(f.DoubleIndirect, outer); err != nil {
				return err
			}
		}

		inner, err := a.readIndirect(outer[row])
		if err != nil {
			return err
		}

		dataKey := ids.New()
		if err := a.cache.Write(dataKey, zeroBlock()); err != nil {
			return err
		}
		inner[col] = dataKey
		return a.writeIndirect(outer[row], inner)

	default:
		return fserr.ErrFileTooLarge
	}
}

// Shrink releases the chain entry (and, where applicable, the indirect
// table that owned it) addressed by logical index i, and clears the
// slot so a later Resolve reports it unallocated.
func (a *Addressing) Shrink(f *fcb.FCB, i int) error {
	key, err := a.Resolve(f, i)
	if err != nil {
		return err
	}
	if !key.IsZero() {
		a.cache.Forget(key)
		if err := a.store.Delete(key); err != nil {
			return err
		}
	}

	switch classify(i) {
	case locDirect:
		f.Direct[i] = store.ZeroKey
		return nil

	case locSingle:
		if f.SingleIndirect.IsZero() {
			return nil
		}
		keys, err := a.readIndirect(f.SingleIndirect)
		if err != nil {
			return err
		}
		idx := i - directBlocks
		keys[idx] = store.ZeroKey
		if idx == 0 {
			a.cache.Forget(f.SingleIndirect)
			if err := a.store.Delete(f.SingleIndirect); err != nil {
				return err
			}
			f.SingleIndirect = store.ZeroKey
			return nil
		}
		return a.writeIndirect(f.SingleIndirect, keys)

	case locDouble:
		if f.DoubleIndirect.IsZero() {
			return nil
		}
		outer, err := a.readIndirect(f.DoubleIndirect)
		if err != nil {
			return err
		}
		idx := i - singleIndirectLimit
		row, col := idx/indirectEntries, idx%indirectEntries

		if outer[row].IsZero() {
			return nil
		}
		inner, err := a.readIndirect(outer[row])
		if err != nil {
			return err
		}
		inner[col] = store.ZeroKey

		if col == 0 {
			a.cache.Forget(outer[row])
			if err := a.store.Delete(outer[row]); err != nil {
				return err
			}
			outer[row] = store.ZeroKey
		} else if err := a.writeIndirect(outer[row], inner); err != nil {
			return err
		}

		if idx == 0 {
			a.cache.Forget(f.DoubleIndirect)
			if err := a.store.Delete(f.DoubleIndirect); err != nil {
				return err
			}
			f.DoubleIndirect = store.ZeroKey
			return nil
		}
		return a.writeIndirect(f.DoubleIndirect, outer)

	default:
		return fserr.ErrFileTooLarge
	}
}
