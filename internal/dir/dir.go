// Package dir implements directory mutation over the packed dirent
// array held in the value under an FCB's DataKey: add via append,
// remove via shift-forward compaction and rewrite, lookup via linear
// scan. Grounded on the original myfs.c search_file/add_dirent/rm_dirent
// family.
package dir

import (
	"github.com/StackCanary/os-filesystem/internal/fcb"
	"github.com/StackCanary/os-filesystem/internal/fserr"
	"github.com/StackCanary/os-filesystem/internal/file"
	"github.com/StackCanary/os-filesystem/internal/store"
)

// Dir implements directory entry mutation against the raw store
// (directory payloads are not block-addressed, so they bypass the
// cache entirely, per spec.md §4.4).
type Dir struct {
	store store.Store
	io    *file.IO
}

// New builds a directory layer over s, releasing removed regular
// files' block chains through io.
func New(s store.Store, io *file.IO) *Dir {
	return &Dir{store: s, io: io}
}

func (d *Dir) readAll(f *fcb.FCB) ([]fcb.DirEntry, error) {
	if f.Size == 0 {
		return nil, nil
	}
	data, ok, err := d.store.Get(f.DataKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fserr.InvalidState("directory payload missing")
	}
	return fcb.DecodeDirEntries(data), nil
}

// Lookup linear-scans dir's entries for an exact filename match.
func (d *Dir) Lookup(dirFCB *fcb.FCB, name string) (fcb.DirEntry, bool, error) {
	entries, err := d.readAll(dirFCB)
	if err != nil {
		return fcb.DirEntry{}, false, err
	}
	for _, e := range entries {
		if e.NameString() == name {
			return e, true, nil
		}
	}
	return fcb.DirEntry{}, false, nil
}

// List returns every entry in dir, in on-disk order.
func (d *Dir) List(dirFCB *fcb.FCB) ([]fcb.DirEntry, error) {
	return d.readAll(dirFCB)
}

// Add appends a new entry under name -> target to dir and increments
// its entry count. Name collisions are not checked (spec.md §4.4, open
// question §9).
func (d *Dir) Add(dirFCB *fcb.FCB, name string, target store.Key) error {
	entry, err := fcb.NewDirEntry(name, target)
	if err != nil {
		return err
	}
	if err := d.store.Append(dirFCB.DataKey, entry.Encode()); err != nil {
		return err
	}
	dirFCB.Size++
	return nil
}

// Remove locates name in dir, frees the target it points at (a
// directory's payload key, or a regular file's block chain), and
// compacts the entry array. It reports whether an entry was removed.
func (d *Dir) Remove(dirFCB *fcb.FCB, name string, targetFCB *fcb.FCB) (bool, error) {
	entries, err := d.readAll(dirFCB)
	if err != nil {
		return false, err
	}

	pos := -1
	for i, e := range entries {
		if e.NameString() == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return false, nil
	}

	if targetFCB.IsDir() {
		if !targetFCB.DataKey.IsZero() {
			if err := d.store.Delete(targetFCB.DataKey); err != nil {
				return false, err
			}
		}
	} else if err := d.io.Resize(targetFCB, 0); err != nil {
		return false, err
	}

	// Shift every later entry one slot forward to close the gap,
	// preserving insertion order, then drop the array's last element.
	copy(entries[pos:], entries[pos+1:])
	entries = entries[:len(entries)-1]
	dirFCB.Size--

	if len(entries) == 0 {
		if err := d.store.Delete(dirFCB.DataKey); err != nil {
			return false, err
		}
		return true, nil
	}

	packed := make([]byte, 0, len(entries)*fcb.DirEntrySize)
	for _, e := range entries {
		packed = append(packed, e.Encode()...)
	}
	if err := d.store.Put(dirFCB.DataKey, packed); err != nil {
		return false, err
	}
	return true, nil
}
