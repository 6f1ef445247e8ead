package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory entries
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

// memoryNode is one entry of the in-memory tree
type memoryNode struct {
	mode    fs.FileMode
	content []byte
	target  string // symlink target, absolute
	modTime time.Time

	lstatErr   error
	openErr    error
	readDirErr error
	readErr    error
	readAfter  int // bytes served before readErr
}

func (n *memoryNode) info(name string) FileInfo {
	return &memoryFileInfo{
		name:    name,
		size:    int64(len(n.content)),
		mode:    n.mode,
		modTime: n.modTime,
	}
}

// failingReader serves the first n bytes of content and then fails with err.
type failingReader struct {
	r   io.Reader
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}

// memoryHandle is an open in-memory file
type memoryHandle struct {
	io.Reader
	mfs    *MemoryFileSystem
	closed bool
}

func (h *memoryHandle) Close() error {
	if h.closed {
		return fs.ErrClosed
	}
	h.closed = true
	h.mfs.openHandles--
	return nil
}

// MemoryFileSystem implements FileSystemProvider for in-memory testing.
// It is not safe for concurrent use.
type MemoryFileSystem struct {
	nodes       map[string]*memoryNode // map of absolute path -> node
	root        string                 // root directory path
	openHandles int
}

// NewMemoryFileSystem creates a new in-memory filesystem.
// The root path is normalized to use forward slashes for virtual filesystem consistency.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))

	mfs := &MemoryFileSystem{
		nodes: make(map[string]*memoryNode),
		root:  root,
	}
	mfs.nodes[root] = &memoryNode{mode: 0755 | fs.ModeDir, modTime: time.Now()}
	return mfs
}

// OpenHandles returns the number of files opened and not yet closed.
func (mfs *MemoryFileSystem) OpenHandles() int { return mfs.openHandles }

// Root returns the root directory path.
func (mfs *MemoryFileSystem) Root() string { return mfs.root }

// resolve maps a path relative to the root, or absolute, to a clean absolute path.
func (mfs *MemoryFileSystem) resolve(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return mfs.root
	}
	if !path.IsAbs(p) {
		p = path.Join(mfs.root, p)
	}
	return path.Clean(p)
}

func (mfs *MemoryFileSystem) add(p string, node *memoryNode) string {
	abs := mfs.resolve(p)
	if node.modTime.IsZero() {
		node.modTime = time.Now()
	}
	mfs.nodes[abs] = node
	mfs.ensureDirectoriesExist(abs)
	return abs
}

// ensureDirectoriesExist creates directory entries for all parent directories
func (mfs *MemoryFileSystem) ensureDirectoriesExist(p string) {
	dir := path.Dir(p)
	if dir == p {
		return
	}
	if _, exists := mfs.nodes[dir]; exists {
		return
	}
	mfs.nodes[dir] = &memoryNode{mode: 0755 | fs.ModeDir, modTime: time.Now()}
	mfs.ensureDirectoriesExist(dir)
}

// AddFile adds a regular file to the in-memory filesystem
func (mfs *MemoryFileSystem) AddFile(p string, content []byte) {
	mfs.add(p, &memoryNode{mode: 0644, content: content})
}

// AddDir adds an empty directory
func (mfs *MemoryFileSystem) AddDir(p string) {
	mfs.add(p, &memoryNode{mode: 0755 | fs.ModeDir})
}

// AddSymlink adds a symbolic link pointing at target
func (mfs *MemoryFileSystem) AddSymlink(p, target string) {
	mfs.add(p, &memoryNode{mode: 0777 | fs.ModeSymlink, target: mfs.resolve(target)})
}

// AddSpecial adds a non-regular, non-directory entry such as a socket or device
func (mfs *MemoryFileSystem) AddSpecial(p string, mode fs.FileMode) {
	mfs.add(p, &memoryNode{mode: mode})
}

func (mfs *MemoryFileSystem) node(p string) (*memoryNode, error) {
	n, ok := mfs.nodes[mfs.resolve(p)]
	if !ok {
		return nil, fmt.Errorf("path not found: %s: %w", p, fs.ErrNotExist)
	}
	return n, nil
}

// FailOpen makes OpenFile on an existing entry fail with err
func (mfs *MemoryFileSystem) FailOpen(p string, err error) {
	if n, lookupErr := mfs.node(p); lookupErr == nil {
		n.openErr = err
	}
}

// FailLstat makes Lstat on an existing entry fail with err
func (mfs *MemoryFileSystem) FailLstat(p string, err error) {
	if n, lookupErr := mfs.node(p); lookupErr == nil {
		n.lstatErr = err
	}
}

// FailReadDir makes ReadDirNames on an existing directory fail with err
func (mfs *MemoryFileSystem) FailReadDir(p string, err error) {
	if n, lookupErr := mfs.node(p); lookupErr == nil {
		n.readDirErr = err
	}
}

// FailRead makes reads of an existing file fail with err after serving the first n bytes
func (mfs *MemoryFileSystem) FailRead(p string, n int, err error) {
	if node, lookupErr := mfs.node(p); lookupErr == nil {
		node.readErr = err
		node.readAfter = n
	}
}

// ReadDirNames implements FileSystemProvider.ReadDirNames
func (mfs *MemoryFileSystem) ReadDirNames(p string) ([]string, error) {
	abs := mfs.resolve(p)
	n, err := mfs.node(abs)
	if err != nil {
		return nil, err
	}
	if !n.mode.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", p)
	}
	if n.readDirErr != nil {
		return nil, n.readDirErr
	}

	prefix := abs + "/"
	if abs == "/" {
		prefix = "/"
	}
	var names []string
	for candidate := range mfs.nodes {
		if candidate == abs || !strings.HasPrefix(candidate, prefix) {
			continue
		}
		rest := strings.TrimPrefix(candidate, prefix)
		if !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Lstat implements FileSystemProvider.Lstat
func (mfs *MemoryFileSystem) Lstat(p string) (FileInfo, error) {
	abs := mfs.resolve(p)
	n, err := mfs.node(abs)
	if err != nil {
		return nil, err
	}
	if n.lstatErr != nil {
		return nil, n.lstatErr
	}
	return n.info(path.Base(abs)), nil
}

// Stat implements FileSystemProvider.Stat
func (mfs *MemoryFileSystem) Stat(p string) (FileInfo, error) {
	abs := mfs.resolve(p)
	n, err := mfs.node(abs)
	if err != nil {
		return nil, err
	}
	for hops := 0; n.mode&fs.ModeSymlink != 0; hops++ {
		if hops > 40 {
			return nil, fmt.Errorf("too many levels of symbolic links: %s", p)
		}
		if n, err = mfs.node(n.target); err != nil {
			return nil, err
		}
	}
	return n.info(path.Base(abs)), nil
}

// OpenFile implements FileSystemProvider.OpenFile
func (mfs *MemoryFileSystem) OpenFile(p string) (io.ReadCloser, error) {
	n, err := mfs.node(p)
	if err != nil {
		return nil, err
	}
	if n.openErr != nil {
		return nil, n.openErr
	}
	if n.mode.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", p)
	}

	var r io.Reader = bytes.NewReader(n.content)
	if n.readErr != nil {
		served := n.content
		if n.readAfter < len(served) {
			served = served[:n.readAfter]
		}
		r = &failingReader{r: bytes.NewReader(served), err: n.readErr}
	}
	mfs.openHandles++
	return &memoryHandle{Reader: r, mfs: mfs}, nil
}
