// Package fixtures builds PostgreSQL storage trees for scanner tests.
package fixtures

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/pg-page-verification/internal/checksum"
	"github.com/google/pg-page-verification/internal/files/filesystem"
	"github.com/google/pg-page-verification/internal/page"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

// PageKind selects how a fixture page is written.
type PageKind int

const (
	// Valid pages carry the correct checksum for their absolute block number.
	Valid PageKind = iota
	// Unset pages hold data but a stored checksum of 0.
	Unset
	// Corrupt pages carry a non-zero checksum that never matches.
	Corrupt
	// Zeroed pages are all zero bytes, like a freshly extended relation.
	Zeroed
)

// StorageFixtureBuilder provides a fluent API for building base directory
// fixtures made of segment files with signed, unsigned or corrupted pages.
//
// Example usage:
//
//	fs := NewStorageFixtureBuilder(opts).
//	    AddSegment("16384/16385", Valid, Valid, Unset).
//	    AddSegment("16384/16385.1", Corrupt).
//	    AddRaw("16384/pg_internal.init", []byte("garbage")).
//	    Build("/data/base")
type StorageFixtureBuilder struct {
	opts     pgverify.Options
	provider pgverify.ChecksumProvider
	files    map[string][]byte // relative path -> content
	dirs     []string
}

// NewStorageFixtureBuilder creates a builder for pages of the given options.
func NewStorageFixtureBuilder(opts pgverify.Options) *StorageFixtureBuilder {
	return &StorageFixtureBuilder{
		opts:     opts,
		provider: checksum.NewWithByteOrder(opts.ByteOrder),
		files:    make(map[string][]byte),
	}
}

// NewPage returns one page of the given kind for absolute block blkno.
func (b *StorageFixtureBuilder) NewPage(kind PageKind, blkno uint32) []byte {
	size := b.opts.BlockSize
	buf := make([]byte, size)
	if kind == Zeroed {
		return buf
	}

	page.Header{
		LSN:             uint64(blkno) + 0x1000000,
		Lower:           pgverify.PageHeaderSize + 8,
		Upper:           uint16(size - 64),
		Special:         uint16(size),
		PageSizeVersion: uint16(size) | 4,
		PruneXID:        blkno,
	}.Encode(buf, b.opts.ByteOrder)
	for i := size - 64; i < size; i++ {
		buf[i] = byte(int(blkno) + i)
	}

	switch kind {
	case Valid:
		page.PutChecksum(buf, b.opts.ByteOrder, b.provider.Checksum(buf, blkno))
	case Corrupt:
		computed := b.provider.Checksum(buf, blkno)
		wrong := computed + 1
		if wrong == 0 {
			wrong = 1
		}
		page.PutChecksum(buf, b.opts.ByteOrder, wrong)
	}
	return buf
}

// AddSegment adds a segment file made of pages of the given kinds. Pages are
// signed for the absolute block numbers implied by the file's segment number.
func (b *StorageFixtureBuilder) AddSegment(relPath string, kinds ...PageKind) *StorageFixtureBuilder {
	segment := page.ParseSegmentNumber(relPath)
	content := make([]byte, 0, len(kinds)*b.opts.BlockSize)
	for i, kind := range kinds {
		abs := page.AbsoluteBlock(segment, b.opts.SegmentPages, uint32(i))
		content = append(content, b.NewPage(kind, abs)...)
	}
	b.files[relPath] = content
	return b
}

// AppendBytes appends n bytes of a partial trailing page to an existing file.
func (b *StorageFixtureBuilder) AppendBytes(relPath string, n int) *StorageFixtureBuilder {
	tail := make([]byte, n)
	for i := range tail {
		tail[i] = 0xA5
	}
	b.files[relPath] = append(b.files[relPath], tail...)
	return b
}

// AddRaw adds a file with arbitrary content.
func (b *StorageFixtureBuilder) AddRaw(relPath string, content []byte) *StorageFixtureBuilder {
	b.files[relPath] = content
	return b
}

// AddDir adds an empty directory.
func (b *StorageFixtureBuilder) AddDir(relPath string) *StorageFixtureBuilder {
	b.dirs = append(b.dirs, relPath)
	return b
}

// Paths returns the relative paths of all files in lexical order.
func (b *StorageFixtureBuilder) Paths() []string {
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Build creates an in-memory filesystem rooted at root.
func (b *StorageFixtureBuilder) Build(root string) *filesystem.MemoryFileSystem {
	fs := filesystem.NewMemoryFileSystem(root)
	fs.AddDir(".")
	for _, dir := range b.dirs {
		fs.AddDir(dir)
	}
	for p, content := range b.files {
		fs.AddFile(p, content)
	}
	return fs
}

// WriteTo writes the fixture under root on the OS filesystem.
func (b *StorageFixtureBuilder) WriteTo(t testing.TB, root string) {
	t.Helper()
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", root, err)
	}
	for _, dir := range b.dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
	}
	for p, content := range b.files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, content, 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}
}

// ============================================================================
// Pre-built Fixtures
// ============================================================================

// TwoSegmentRelation is relation 16385 of database 16384: a first segment of
// three unset pages and a second segment holding one corrupted page.
func TwoSegmentRelation(opts pgverify.Options) *StorageFixtureBuilder {
	return NewStorageFixtureBuilder(opts).
		AddSegment(path.Join("16384", "16385"), Unset, Unset, Unset).
		AddSegment(path.Join("16384", "16385.1"), Corrupt)
}

// HealthyCluster is a small cluster with two databases, forks and a
// relation cache init file full of garbage.
func HealthyCluster(opts pgverify.Options) *StorageFixtureBuilder {
	return NewStorageFixtureBuilder(opts).
		AddSegment("1/1259", Valid, Valid, Zeroed, Valid).
		AddSegment("1/1259_fsm", Valid, Valid, Valid).
		AddSegment("1/1259_vm", Valid).
		AddRaw("1/PG_VERSION", nil).
		AddRaw("1/"+pgverify.RelCacheInitFileName, []byte("not a page at all")).
		AddSegment("16384/16385", Valid, Unset, Valid).
		AddSegment("16384/16385.1", Valid, Valid).
		AddSegment("16384/16385.2", Valid).
		AddDir("16390")
}
