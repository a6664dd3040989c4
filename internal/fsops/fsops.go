// Package fsops resolves paths against the directory tree and mediates
// namespace operations (create, mkdir, unlink, rmdir, read, write,
// resize, attribute changes) against the inode/directory and block
// addressing layers. It is the single state value referenced by the
// design notes: no package-level globals, everything flows through an
// *FS passed explicitly by the caller (internal/bridge).
package fsops

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/StackCanary/os-filesystem/internal/blocks"
	"github.com/StackCanary/os-filesystem/internal/cache"
	"github.com/StackCanary/os-filesystem/internal/dir"
	"github.com/StackCanary/os-filesystem/internal/fcb"
	"github.com/StackCanary/os-filesystem/internal/fserr"
	"github.com/StackCanary/os-filesystem/internal/file"
	"github.com/StackCanary/os-filesystem/internal/ids"
	"github.com/StackCanary/os-filesystem/internal/store"
)

// Ino is the fixed inode number reported for every entry. The original
// design never assigns distinct inode numbers; this filesystem
// preserves that rather than inventing one, since spec.md's bridge
// surface names it explicitly as a constant.
const Ino = 10

// FS is the filesystem core: the key-value store, block cache, and the
// resolved layers built on top of them, plus the in-memory root FCB
// snapshot the design notes call out for centralised refresh.
type FS struct {
	store store.Store
	cache *cache.Cache
	addr  *blocks.Addressing
	io    *file.IO
	dirs  *dir.Dir

	root fcb.FCB

	log *logrus.Logger
}

// Options configures a new FS.
type Options struct {
	StorePath     string
	CacheCapacity int // currently fixed by internal/cache.Capacity; kept for future tuning
	UID, GID      uint32
	Log           *logrus.Logger
}

// New opens (or creates) the backing store at opts.StorePath, seeds a
// fresh root directory if none exists, and returns a ready FS. If a
// root FCB exists but has the wrong on-disk size, it returns
// fserr.ErrInvalidState: the original design treats this as fatal and
// so does this one.
func New(opts Options) (*FS, error) {
	log := opts.Log
	if log == nil {
		log = logrus.New()
	}

	s, err := store.Open(opts.StorePath)
	if err != nil {
		return nil, err
	}

	c := cache.New(s)
	addr := blocks.New(s, c)
	io := file.New(addr)
	dirs := dir.New(s, io)

	fs := &FS{store: s, cache: c, addr: addr, io: io, dirs: dirs, log: log}

	raw, ok, err := s.Get(store.ZeroKey)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	if !ok {
		log.Info("root object was not found; seeding a fresh root")
		now := time.Now().Unix()
		root := fcb.FCB{
			DataKey: ids.New(),
			Mode:    fcb.ModeDir | 0o755,
			UID:     opts.UID,
			GID:     opts.GID,
			Atime:   now,
			Mtime:   now,
			Ctime:   now,
			Nlink:   1,
		}
		if err := s.Put(store.ZeroKey, root.Encode()); err != nil {
			_ = s.Close()
			return nil, err
		}
		fs.root = root
		return fs, nil
	}

	if len(raw) != fcb.EncodedSize {
		_ = s.Close()
		return nil, fserr.InvalidState("root object has unexpected size")
	}

	root, err := fcb.Decode(raw)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	fs.root = *root
	log.Info("root object found; resuming existing filesystem")
	return fs, nil
}

// Close flushes the cache and closes the backing store.
func (fs *FS) Close() error {
	if err := fs.cache.Flush(); err != nil {
		return err
	}
	return fs.store.Close()
}

// persistRoot writes the in-memory root snapshot back to the zero key,
// keeping the store and the cached copy consistent from the caller's
// perspective (design notes: "centralise this").
func (fs *FS) persistRoot() error {
	return fs.store.Put(store.ZeroKey, fs.root.Encode())
}

func (fs *FS) load(key store.Key) (fcb.FCB, error) {
	if key.IsZero() {
		return fs.root, nil
	}
	raw, ok, err := fs.store.Get(key)
	if err != nil {
		return fcb.FCB{}, err
	}
	if !ok {
		return fcb.FCB{}, fserr.InvalidState("fcb missing")
	}
	f, err := fcb.Decode(raw)
	if err != nil {
		return fcb.FCB{}, err
	}
	return *f, nil
}

func (fs *FS) persist(key store.Key, f *fcb.FCB) error {
	if key.IsZero() {
		fs.root = *f
		return fs.persistRoot()
	}
	return fs.store.Put(key, f.Encode())
}

// resolve walks path from the root, descending one directory lookup
// per component. The empty path and "/" resolve to the root FCB with
// key store.ZeroKey.
func (fs *FS) resolve(path string) (fcb.FCB, store.Key, error) {
	current := fs.root
	currentKey := store.ZeroKey

	for _, comp := range components(path) {
		entry, found, err := fs.dirs.Lookup(&current, comp)
		if err != nil {
			return fcb.FCB{}, store.ZeroKey, err
		}
		if !found {
			return fcb.FCB{}, store.ZeroKey, fserr.ErrNotFound
		}
		next, err := fs.load(entry.Target)
		if err != nil {
			return fcb.FCB{}, store.ZeroKey, err
		}
		current = next
		currentKey = entry.Target
	}

	return current, currentKey, nil
}

// resolveParent resolves the directory that should contain path's
// final component, returning it alongside that component's name.
func (fs *FS) resolveParent(path string) (parent fcb.FCB, parentKey store.Key, name string, err error) {
	parent, parentKey, err = fs.resolve(ascend(path))
	if err != nil {
		return fcb.FCB{}, store.ZeroKey, "", err
	}
	return parent, parentKey, base(path), nil
}
