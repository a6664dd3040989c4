package bridge

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"

	"github.com/StackCanary/os-filesystem/internal/fsops"
)

// handle is a stateless file handle: it carries only the path it was
// opened against and re-resolves that path against the core on every
// call, since the namespace layer keeps no per-handle state (spec's
// bridge surface treats every file handle this way).
type handle struct {
	nodefs.File

	core *fsops.FS
	path string
}

func newHandle(core *fsops.FS, path string) nodefs.File {
	return &handle{File: nodefs.NewDefaultFile(), core: core, path: path}
}

func (h *handle) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	n, err := h.core.Read(h.path, dest, off)
	if err != nil {
		return nil, toStatus(err)
	}
	return fuse.ReadResultData(dest[:n]), fuse.OK
}

func (h *handle) Write(data []byte, off int64) (uint32, fuse.Status) {
	n, err := h.core.Write(h.path, data, off)
	if err != nil {
		return 0, toStatus(err)
	}
	return uint32(n), fuse.OK
}

func (h *handle) Flush() fuse.Status {
	return toStatus(h.core.Flush())
}

func (h *handle) Release() {}

func (h *handle) Truncate(size uint64) fuse.Status {
	return toStatus(h.core.Truncate(h.path, size))
}

func (h *handle) GetAttr(out *fuse.Attr) fuse.Status {
	a, err := h.core.GetAttr(h.path)
	if err != nil {
		return toStatus(err)
	}
	attrToFuse(a, out)
	return fuse.OK
}

func (h *handle) Chown(uid uint32, gid uint32) fuse.Status {
	return toStatus(h.core.Chown(h.path, uid, gid))
}

func (h *handle) Chmod(perms uint32) fuse.Status {
	return toStatus(h.core.Chmod(h.path, perms))
}

func (h *handle) Utimens(atime *time.Time, mtime *time.Time) fuse.Status {
	var at, mt int64
	if atime != nil {
		at = atime.Unix()
	}
	if mtime != nil {
		mt = mtime.Unix()
	}
	return toStatus(h.core.Utime(h.path, at, mt))
}

func (h *handle) String() string {
	return "osFsHandle(" + h.path + ")"
}
