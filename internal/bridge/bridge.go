// Package bridge adapts the filesystem core (internal/fsops) to
// go-fuse's pathfs.FileSystem interface, translating the core's
// fserr sentinels to fuse.Status at the boundary. Grounded on
// hanwen-go-fuse's fuse/pathfs.FileSystem and fuse/nodefs.File
// interfaces; every operation this filesystem does not implement
// (symlinks, hard links, rename, xattrs, mknod) falls through to
// pathfs.NewDefaultFileSystem.
package bridge

import (
	"errors"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"
	"github.com/sirupsen/logrus"

	"github.com/StackCanary/os-filesystem/internal/fserr"
	"github.com/StackCanary/os-filesystem/internal/fsops"
)

// FS implements pathfs.FileSystem over an *fsops.FS core.
type FS struct {
	pathfs.FileSystem

	core *fsops.FS
	log  *logrus.Logger
}

// New wraps core as a pathfs.FileSystem.
func New(core *fsops.FS, log *logrus.Logger) *FS {
	return &FS{
		FileSystem: pathfs.NewDefaultFileSystem(),
		core:       core,
		log:        log,
	}
}

func (fs *FS) String() string {
	return "os-filesystem"
}

// toStatus translates an fserr sentinel into the nearest fuse.Status.
// Anything unrecognised, including storage failures, maps to EIO: the
// core treats those as fatal and the bridge should never paper over
// them with a misleading success-adjacent code.
func toStatus(err error) fuse.Status {
	switch {
	case err == nil:
		return fuse.OK
	case errors.Is(err, fserr.ErrNotFound):
		return fuse.ENOENT
	case errors.Is(err, fserr.ErrNameTooLong):
		return fuse.Status(36) // ENAMETOOLONG
	case errors.Is(err, fserr.ErrFileTooLarge):
		return fuse.Status(27) // EFBIG
	case errors.Is(err, fserr.ErrIsDirectory):
		return fuse.Status(21) // EISDIR
	case errors.Is(err, fserr.ErrNotDirectory):
		return fuse.ENOTDIR
	default:
		return fuse.EIO
	}
}

func attrToFuse(a fsops.Attr, out *fuse.Attr) {
	out.Ino = fsops.Ino
	out.Mode = a.Mode
	out.Size = a.Size
	out.Nlink = a.Nlink
	out.Uid = a.UID
	out.Gid = a.GID
	out.Atime = uint64(a.Atime)
	out.Mtime = uint64(a.Mtime)
	out.Ctime = uint64(a.Ctime)
	out.Blocks = (a.Size + 511) / 512
}

func (fs *FS) GetAttr(name string, context *fuse.Context) (*fuse.Attr, fuse.Status) {
	path := "/" + name
	a, err := fs.core.GetAttr(path)
	if err != nil {
		return nil, toStatus(err)
	}
	out := &fuse.Attr{}
	attrToFuse(a, out)
	return out, fuse.OK
}

func (fs *FS) OpenDir(name string, context *fuse.Context) ([]fuse.DirEntry, fuse.Status) {
	path := "/" + name
	entries, err := fs.core.ReadDir(path)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fuse.DirEntry{Name: e.Name, Mode: e.Mode})
	}
	return out, fuse.OK
}

func (fs *FS) Open(name string, flags uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	path := "/" + name
	if err := fs.core.Open(path); err != nil {
		return nil, toStatus(err)
	}
	return newHandle(fs.core, path), fuse.OK
}

func (fs *FS) Create(name string, flags uint32, mode uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	path := "/" + name
	if err := fs.core.Create(path, mode, context.Owner.Uid, context.Owner.Gid); err != nil {
		return nil, toStatus(err)
	}
	return newHandle(fs.core, path), fuse.OK
}

func (fs *FS) Mkdir(name string, mode uint32, context *fuse.Context) fuse.Status {
	path := "/" + name
	return toStatus(fs.core.Mkdir(path, mode, context.Owner.Uid, context.Owner.Gid))
}

func (fs *FS) Unlink(name string, context *fuse.Context) fuse.Status {
	return toStatus(fs.core.Unlink("/" + name))
}

func (fs *FS) Rmdir(name string, context *fuse.Context) fuse.Status {
	return toStatus(fs.core.Rmdir("/" + name))
}

func (fs *FS) Chmod(name string, mode uint32, context *fuse.Context) fuse.Status {
	return toStatus(fs.core.Chmod("/"+name, mode))
}

func (fs *FS) Chown(name string, uid uint32, gid uint32, context *fuse.Context) fuse.Status {
	return toStatus(fs.core.Chown("/"+name, uid, gid))
}

func (fs *FS) Truncate(name string, size uint64, context *fuse.Context) fuse.Status {
	return toStatus(fs.core.Truncate("/"+name, size))
}

func (fs *FS) Utimens(name string, atime *time.Time, mtime *time.Time, context *fuse.Context) fuse.Status {
	var at, mt int64
	if atime != nil {
		at = atime.Unix()
	}
	if mtime != nil {
		mt = mtime.Unix()
	}
	return toStatus(fs.core.Utime("/"+name, at, mt))
}

func (fs *FS) OnMount(nodeFs *pathfs.PathNodeFs) {
	fs.log.Info("filesystem mounted")
}
