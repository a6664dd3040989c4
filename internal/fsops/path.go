package fsops

import "strings"

// splitComponent splits the next component off an absolute path and
// reports whether it was the final component. Mirrors the original
// myfs.c split_path: strips the leading '/', scans to the next '/' or
// end of string.
func splitComponent(path string) (component string, rest string, finished bool) {
	path = strings.TrimPrefix(path, "/")
	idx := strings.IndexByte(path, '/')
	if idx < 0 {
		return path, "", true
	}
	return path[:idx], path[idx+1:], false
}

// components tokenizes an absolute path into its non-empty segments.
func components(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	var out []string
	rest := path
	for {
		var comp string
		var finished bool
		comp, rest, finished = splitComponent(rest)
		if comp != "" {
			out = append(out, comp)
		}
		if finished {
			break
		}
	}
	return out
}

// ascend truncates path after its final '/', with the root preserved
// as "/". Mirrors the original myfs.c ascend_path.
func ascend(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// base returns the final component of an absolute path.
func base(path string) string {
	idx := strings.LastIndexByte(path, '/')
	return path[idx+1:]
}
