package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// EntryKind is the classification of a directory entry.
type EntryKind int

const (
	// KindOther covers symbolic links, sockets, devices and pipes.
	KindOther EntryKind = iota
	KindDirectory
	KindRegular
)

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindRegular:
		return "regular file"
	default:
		return "other"
	}
}

// KindOf classifies a file mode as returned by Lstat.
func KindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindRegular
	default:
		return KindOther
	}
}

// FileSystemProvider gives read-only access to a storage tree.
type FileSystemProvider interface {
	// ReadDirNames returns the names of the entries of a directory in
	// lexical order. The "." and ".." pseudo-entries are not included.
	ReadDirNames(path string) ([]string, error)

	// Lstat returns file information without following symbolic links.
	Lstat(path string) (FileInfo, error)

	// Stat returns file information, following symbolic links.
	Stat(path string) (FileInfo, error)

	// OpenFile opens a file for sequential reading.
	OpenFile(path string) (io.ReadCloser, error)
}
