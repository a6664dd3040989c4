package fsops

import (
	"time"

	"github.com/StackCanary/os-filesystem/internal/fcb"
	"github.com/StackCanary/os-filesystem/internal/fserr"
	"github.com/StackCanary/os-filesystem/internal/ids"
)

// Attr is the attribute set reported for a resolved path.
type Attr struct {
	Mode     uint32
	UID, GID uint32
	Size     uint64
	Atime    int64
	Mtime    int64
	Ctime    int64
	Nlink    uint32
}

func attrOf(f *fcb.FCB) Attr {
	return Attr{
		Mode:  f.Mode,
		UID:   f.UID,
		GID:   f.GID,
		Size:  f.Size,
		Atime: f.Atime,
		Mtime: f.Mtime,
		Ctime: f.Ctime,
		Nlink: f.Nlink,
	}
}

// Entry is one name in a directory listing.
type Entry struct {
	Name string
	Mode uint32
}

func now() int64 { return time.Now().Unix() }

// GetAttr resolves path and returns its attributes.
func (fs *FS) GetAttr(path string) (Attr, error) {
	f, _, err := fs.resolve(path)
	if err != nil {
		return Attr{}, err
	}
	return attrOf(&f), nil
}

// ReadDir lists path's directory entries. It returns fserr.ErrNotDirectory
// if path does not name a directory.
func (fs *FS) ReadDir(path string) ([]Entry, error) {
	f, _, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	if !f.IsDir() {
		return nil, fserr.ErrNotDirectory
	}
	entries, err := fs.dirs.List(&f)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		name := e.NameString()
		childFCB, err := fs.load(e.Target)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: name, Mode: childFCB.Mode})
	}
	return out, nil
}

// Open resolves path and reports whether it names a regular file,
// matching the bridge surface's stated restriction to regular files.
func (fs *FS) Open(path string) error {
	f, _, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if f.IsDir() {
		return fserr.ErrIsDirectory
	}
	return nil
}

// Read reads up to len(buf) bytes from path at off.
func (fs *FS) Read(path string, buf []byte, off int64) (int, error) {
	f, _, err := fs.resolve(path)
	if err != nil {
		return 0, err
	}
	if f.IsDir() {
		return 0, fserr.ErrIsDirectory
	}
	n, err := fs.io.ReadAt(&f, buf, off)
	if err != nil {
		return 0, err
	}
	f.Atime = now()
	if perr := fs.persistForPath(path, &f); perr != nil {
		return 0, perr
	}
	return n, nil
}

// Write writes buf to path at off, growing the file if necessary.
func (fs *FS) Write(path string, buf []byte, off int64) (int, error) {
	f, _, err := fs.resolve(path)
	if err != nil {
		return 0, err
	}
	if f.IsDir() {
		return 0, fserr.ErrIsDirectory
	}
	n, err := fs.io.WriteAt(&f, buf, off)
	if err != nil {
		return 0, err
	}
	f.Mtime = now()
	f.Ctime = f.Mtime
	if perr := fs.persistForPath(path, &f); perr != nil {
		return 0, perr
	}
	return n, nil
}

// persistForPath re-resolves path's key and writes f back under it.
// Namespace operations are stateless between calls (spec.md §4.7), so a
// mutated FCB must be written back through a fresh lookup of its own
// key rather than a cached handle.
func (fs *FS) persistForPath(path string, f *fcb.FCB) error {
	_, key, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return fs.persist(key, f)
}

// Create adds a new empty regular file named by path, owned by uid/gid.
// It returns fserr.ErrNotFound if path's parent directory does not
// exist. Name collisions are not checked (open question, spec.md §9).
func (fs *FS) Create(path string, mode uint32, uid, gid uint32) error {
	parent, parentKey, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	if !parent.IsDir() {
		return fserr.ErrNotDirectory
	}
	if len(name) == 0 {
		return fserr.InvalidState("empty filename")
	}

	ts := now()
	child := fcb.FCB{
		DataKey: ids.New(),
		Mode:    fcb.ModeRegular | (mode &^ fcb.ModeDir &^ fcb.ModeRegular),
		UID:     uid,
		GID:     gid,
		Atime:   ts,
		Mtime:   ts,
		Ctime:   ts,
		Nlink:   1,
	}
	childKey := ids.New()
	if err := fs.store.Put(childKey, child.Encode()); err != nil {
		return err
	}

	if err := fs.dirs.Add(&parent, name, childKey); err != nil {
		return err
	}
	return fs.persist(parentKey, &parent)
}

// Mkdir adds a new empty directory named by path, owned by uid/gid.
func (fs *FS) Mkdir(path string, mode uint32, uid, gid uint32) error {
	parent, parentKey, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	if !parent.IsDir() {
		return fserr.ErrNotDirectory
	}
	if len(name) == 0 {
		return fserr.InvalidState("empty directory name")
	}

	ts := now()
	child := fcb.FCB{
		DataKey: ids.New(),
		Mode:    fcb.ModeDir | (mode &^ fcb.ModeDir &^ fcb.ModeRegular),
		UID:     uid,
		GID:     gid,
		Atime:   ts,
		Mtime:   ts,
		Ctime:   ts,
		Nlink:   1,
	}
	childKey := ids.New()
	if err := fs.store.Put(childKey, child.Encode()); err != nil {
		return err
	}

	if err := fs.dirs.Add(&parent, name, childKey); err != nil {
		return err
	}
	return fs.persist(parentKey, &parent)
}

// Truncate resizes the regular file named by path to size bytes.
func (fs *FS) Truncate(path string, size uint64) error {
	f, key, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if f.IsDir() {
		return fserr.ErrIsDirectory
	}
	if err := fs.io.Resize(&f, size); err != nil {
		return err
	}
	f.Mtime = now()
	f.Ctime = f.Mtime
	return fs.persist(key, &f)
}

// Utime sets path's access and modification times.
func (fs *FS) Utime(path string, atime, mtime int64) error {
	f, key, err := fs.resolve(path)
	if err != nil {
		return err
	}
	f.Atime = atime
	f.Mtime = mtime
	f.Ctime = now()
	return fs.persist(key, &f)
}

// Chmod updates path's mode bits, preserving its file-type bits.
func (fs *FS) Chmod(path string, mode uint32) error {
	f, key, err := fs.resolve(path)
	if err != nil {
		return err
	}
	typeBits := f.Mode & (fcb.ModeDir | fcb.ModeRegular)
	f.Mode = typeBits | (mode &^ fcb.ModeDir &^ fcb.ModeRegular)
	f.Ctime = now()
	return fs.persist(key, &f)
}

// Chown updates path's owning uid/gid.
func (fs *FS) Chown(path string, uid, gid uint32) error {
	f, key, err := fs.resolve(path)
	if err != nil {
		return err
	}
	f.UID = uid
	f.GID = gid
	f.Ctime = now()
	return fs.persist(key, &f)
}

// Unlink removes the regular file named by path, releasing its block
// chain. Nlink is never decremented toward zero across multiple hard
// links because this filesystem never creates more than one (REDESIGN
// FLAGS, spec.md §9): every unlink is a final removal.
func (fs *FS) Unlink(path string) error {
	parent, parentKey, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	target, targetKey, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if target.IsDir() {
		return fserr.ErrIsDirectory
	}

	removed, err := fs.dirs.Remove(&parent, name, &target)
	if err != nil {
		return err
	}
	if !removed {
		return fserr.ErrNotFound
	}
	if err := fs.store.Delete(targetKey); err != nil {
		return err
	}
	return fs.persist(parentKey, &parent)
}

// Rmdir removes the directory named by path, emptiness not required.
// It does not recursively free a non-empty directory's contents:
// entries still reachable only through that directory become
// unreachable by name rather than being freed. This orphan risk is
// intentional, not a bug to be papered over.
func (fs *FS) Rmdir(path string) error {
	parent, parentKey, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	target, targetKey, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if !target.IsDir() {
		return fserr.ErrNotDirectory
	}

	removed, err := fs.dirs.Remove(&parent, name, &target)
	if err != nil {
		return err
	}
	if !removed {
		return fserr.ErrNotFound
	}
	if err := fs.store.Delete(targetKey); err != nil {
		return err
	}
	return fs.persist(parentKey, &parent)
}

// Flush persists the in-memory root snapshot and writes every resident
// block cache entry back to the store; the entries stay resident.
func (fs *FS) Flush() error {
	if err := fs.persistRoot(); err != nil {
		return err
	}
	return fs.cache.Flush()
}
