package scanner

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/pg-page-verification/internal/checksum"
	"github.com/google/pg-page-verification/internal/files/filesystem"
	"github.com/google/pg-page-verification/internal/logging"
	"github.com/google/pg-page-verification/internal/testing/fixtures"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

const testRoot = "/data/base"

func testOptions() pgverify.Options {
	opts := pgverify.DefaultOptions()
	opts.BlockSize = 1024
	opts.ByteOrder = binary.LittleEndian
	return opts
}

// recordingReporter keeps a copy of every finding.
type recordingReporter struct {
	findings []pgverify.Finding
}

func (r *recordingReporter) Report(f pgverify.Finding) {
	f.Page = append([]byte(nil), f.Page...)
	r.findings = append(r.findings, f)
}

func (r *recordingReporter) paths() []string {
	var out []string
	for _, f := range r.findings {
		out = append(out, f.Path)
	}
	return out
}

func newTestScanner(t *testing.T, fsys filesystem.FileSystemProvider, opts pgverify.Options) (*Scanner, *recordingReporter, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := logging.NewConsoleLogger(opts.Verbose, logging.WithWriter(&logs), logging.WithColor(false))
	rec := &recordingReporter{}
	s := NewScannerWithFS(checksum.NewWithByteOrder(opts.ByteOrder), fsys, opts, logger).WithReporter(rec)
	return s, rec, &logs
}

func TestScanDirectory_TwoSegmentRelation(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.TwoSegmentRelation(opts).Build(testRoot)
	s, rec, _ := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.Corrupted)
	assert.Equal(t, uint64(2), result.FilesScanned)
	assert.Equal(t, uint64(4), result.PagesScanned)

	require.Len(t, rec.findings, 1)
	f := rec.findings[0]
	assert.Equal(t, filepath.Join(testRoot, "16384", "16385.1"), f.Path)
	assert.Equal(t, pgverify.ReasonChecksumMismatch, f.Reason)
	assert.Equal(t, uint32(1), f.Segment)
	assert.Equal(t, uint32(0), f.LocalBlock)
	assert.Equal(t, opts.SegmentPages, f.AbsoluteBlock)
	assert.NotEqual(t, f.StoredChecksum, f.ComputedChecksum)
	assert.Len(t, f.Page, opts.BlockSize)
}

func TestScanDirectory_HealthyCluster(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.HealthyCluster(opts).Build(testRoot)
	s, rec, logs := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Zero(t, result.Corrupted)
	assert.Equal(t, uint64(1), result.FilesSkipped, "relation cache init file is skipped")
	assert.Equal(t, uint64(7), result.FilesScanned)
	assert.Equal(t, uint64(14), result.PagesScanned)
	assert.Empty(t, rec.findings)
	assert.Empty(t, logs.String())
	assert.True(t, result.Verdict().Clean())
}

func TestScanDirectory_EmptyDirectory(t *testing.T) {
	opts := testOptions()
	fsys := filesystem.NewMemoryFileSystem(testRoot)
	s, _, _ := newTestScanner(t, fsys, opts)

	assert.Equal(t, pgverify.ScanResult{}, s.ScanDirectory(testRoot))
}

func TestScanFile_RelCacheInitFileIsSkipped(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/"+pgverify.RelCacheInitFileName, fixtures.Corrupt, fixtures.Corrupt).
		Build(testRoot)
	s, rec, _ := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Zero(t, result.Corrupted)
	assert.Equal(t, uint64(1), result.FilesSkipped)
	assert.Zero(t, result.FilesScanned)
	assert.Empty(t, rec.findings)
	assert.Zero(t, fsys.OpenHandles())
}

func TestScanFile_ConfiguredSkipFiles(t *testing.T) {
	opts := testOptions()
	opts.SkipFiles = []string{"16385_vm"}
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/16385_vm", fixtures.Corrupt).
		AddSegment("1/16385", fixtures.Corrupt).
		Build(testRoot)
	s, _, _ := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.Corrupted)
	assert.Equal(t, uint64(1), result.FilesSkipped)
}

func TestScanFile_OpenFailureCountsOne(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100", fixtures.Corrupt, fixtures.Valid).
		AddSegment("1/200", fixtures.Valid, fixtures.Valid).
		AddSegment("1/300", fixtures.Valid).
		Build(testRoot)
	permission := &fs.PathError{Op: "open", Path: "1/200", Err: fs.ErrPermission}
	fsys.FailOpen("1/200", permission)
	s, rec, logs := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(2), result.Corrupted, "one mismatch plus one unopenable file")
	assert.Equal(t, uint64(2), result.FilesScanned)
	assert.Contains(t, logs.String(), "cannot be opened")

	require.Len(t, rec.findings, 2)
	assert.Equal(t, pgverify.ReasonChecksumMismatch, rec.findings[0].Reason)
	assert.Equal(t, pgverify.ReasonOpenFailed, rec.findings[1].Reason)
	assert.ErrorIs(t, rec.findings[1].Err, fs.ErrPermission)
	assert.Zero(t, fsys.OpenHandles())
}

func TestScanFile_TruncatedTrailingPage(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100.2", fixtures.Valid, fixtures.Valid).
		AppendBytes("1/100.2", 100).
		Build(testRoot)
	s, rec, _ := newTestScanner(t, fsys, opts)

	result := s.ScanFile(filepath.Join(testRoot, "1", "100.2"))

	assert.Equal(t, uint64(1), result.Corrupted)
	assert.Equal(t, uint64(2), result.PagesScanned)

	require.Len(t, rec.findings, 1)
	f := rec.findings[0]
	assert.Equal(t, pgverify.ReasonTruncatedPage, f.Reason)
	assert.Equal(t, uint32(2), f.LocalBlock)
	assert.Equal(t, 2*opts.SegmentPages+2, f.AbsoluteBlock)
	assert.Len(t, f.Page, 100)
	assert.Zero(t, fsys.OpenHandles())
}

func TestScanFile_ShortFileIsOneUnit(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddRaw("1/100", []byte("short")).
		Build(testRoot)
	s, _, _ := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.Corrupted)
	assert.Zero(t, result.PagesScanned)
}

func TestScanFile_EmptyFileIsClean(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddRaw("1/100", nil).
		Build(testRoot)
	s, _, _ := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Zero(t, result.Corrupted)
	assert.Equal(t, uint64(1), result.FilesScanned)
}

func TestScanFile_ReadErrorCountsOne(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100", fixtures.Valid, fixtures.Valid, fixtures.Corrupt).
		Build(testRoot)
	eio := errors.New("input/output error")
	fsys.FailRead("1/100", opts.BlockSize+10, eio)
	s, rec, logs := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.Corrupted, "the read error stops the file")
	assert.Equal(t, uint64(1), result.PagesScanned)
	assert.Contains(t, logs.String(), "cannot be read")

	require.Len(t, rec.findings, 1)
	assert.Equal(t, pgverify.ReasonReadFailed, rec.findings[0].Reason)
	assert.Equal(t, uint32(1), rec.findings[0].LocalBlock)
	assert.ErrorIs(t, rec.findings[0].Err, eio)
	assert.Zero(t, fsys.OpenHandles())
}

func TestScanDirectory_SymlinksAreNotFollowed(t *testing.T) {
	opts := testOptions()
	builder := fixtures.NewStorageFixtureBuilder(opts)
	fsys := builder.AddSegment("1/100", fixtures.Valid).Build(testRoot)

	// Corrupted data outside the base directory, reachable only through links.
	fsys.AddFile("/elsewhere/db/200", builder.NewPage(fixtures.Corrupt, 0))
	fsys.AddSymlink("1/200", "/elsewhere/db/200")
	fsys.AddSymlink("2", "/elsewhere/db")

	s, rec, _ := newTestScanner(t, fsys, opts)
	result := s.ScanDirectory(testRoot)

	assert.Zero(t, result.Corrupted)
	assert.Equal(t, uint64(1), result.FilesScanned)
	assert.Empty(t, rec.findings)
}

func TestScanDirectory_SpecialFilesAreIgnored(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100", fixtures.Valid).
		Build(testRoot)
	fsys.AddSpecial("1/socket", fs.ModeSocket|0600)
	fsys.AddSpecial("1/fifo", fs.ModeNamedPipe|0600)
	fsys.AddSpecial("1/device", fs.ModeDevice|0600)

	s, _, _ := newTestScanner(t, fsys, opts)
	result := s.ScanDirectory(testRoot)

	assert.Zero(t, result.Corrupted)
	assert.Equal(t, uint64(1), result.FilesScanned)
	assert.Zero(t, result.EntriesSkipped)
}

func TestScanDirectory_LstatFailureSkipsEntry(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100", fixtures.Corrupt).
		AddSegment("1/200", fixtures.Corrupt).
		Build(testRoot)
	fsys.FailLstat("1/100", fs.ErrPermission)
	s, _, logs := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.Corrupted, "sibling is still scanned")
	assert.Equal(t, uint64(1), result.EntriesSkipped)
	assert.Contains(t, logs.String(), "cannot determine entry type")
}

func TestScanDirectory_UnreadableSubdirectory(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100", fixtures.Corrupt).
		AddSegment("2/100", fixtures.Corrupt).
		Build(testRoot)
	fsys.FailReadDir("1", fs.ErrPermission)
	s, _, logs := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.Corrupted)
	assert.Equal(t, uint64(1), result.EntriesSkipped)
	assert.Contains(t, logs.String(), "cannot read directory")
}

func TestScanDirectory_VisitOrder(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("b/1", fixtures.Corrupt).
		AddSegment("a/2", fixtures.Corrupt).
		AddSegment("a/1", fixtures.Corrupt).
		AddSegment("a/sub/1", fixtures.Corrupt).
		AddSegment("z", fixtures.Corrupt).
		Build(testRoot)
	s, rec, _ := newTestScanner(t, fsys, opts)

	s.ScanDirectory(testRoot)

	assert.Equal(t, []string{
		filepath.Join(testRoot, "z"),
		filepath.Join(testRoot, "a", "1"),
		filepath.Join(testRoot, "a", "2"),
		filepath.Join(testRoot, "a", "sub", "1"),
		filepath.Join(testRoot, "b", "1"),
	}, rec.paths())
}

func TestScanDirectory_Idempotent(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.TwoSegmentRelation(opts).
		AddSegment("1/1259", fixtures.Valid, fixtures.Corrupt, fixtures.Unset).
		AppendBytes("1/1259", 17).
		Build(testRoot)
	s, _, _ := newTestScanner(t, fsys, opts)

	first := s.ScanDirectory(testRoot)
	second := s.ScanDirectory(testRoot)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(3), first.Corrupted)
	assert.Zero(t, fsys.OpenHandles())
}

func TestScanDirectory_SumOfFiles(t *testing.T) {
	opts := testOptions()
	builder := fixtures.TwoSegmentRelation(opts).
		AddSegment("1/1259", fixtures.Corrupt, fixtures.Corrupt).
		AddSegment("1/1259.1", fixtures.Valid, fixtures.Corrupt)
	fsys := builder.Build(testRoot)
	s, _, _ := newTestScanner(t, fsys, opts)

	var sum pgverify.ScanResult
	for _, p := range builder.Paths() {
		sum = sum.Add(s.ScanFile(filepath.Join(testRoot, filepath.FromSlash(p))))
	}

	assert.Equal(t, sum, s.ScanDirectory(testRoot))
	assert.Equal(t, uint64(4), sum.Corrupted)
}

func TestScanDirectory_VerboseLogging(t *testing.T) {
	opts := testOptions()
	opts.Verbose = true
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100", fixtures.Valid).
		Build(testRoot)
	s, _, logs := newTestScanner(t, fsys, opts)

	s.ScanDirectory(testRoot)

	out := logs.String()
	assert.Contains(t, out, "[VERBOSE] scanning directory: "+testRoot)
	assert.Contains(t, out, "direntry: "+filepath.Join(testRoot, "1")+" - directory")
	assert.Contains(t, out, "direntry: "+filepath.Join(testRoot, "1", "100")+" - regular file")
	assert.Contains(t, out, "[0]: segment=0 absolute=0")
}

func TestScanDirectory_VerboseSymlinks(t *testing.T) {
	opts := testOptions()
	opts.Verbose = true
	fsys := fixtures.NewStorageFixtureBuilder(opts).
		AddSegment("1/100", fixtures.Valid).
		Build(testRoot)
	fsys.AddSymlink("2", "/elsewhere/db")
	fsys.AddDir("/elsewhere/db")
	fsys.AddSymlink("1/gone", "/elsewhere/missing")
	s, _, logs := newTestScanner(t, fsys, opts)

	result := s.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.FilesScanned)
	assert.Contains(t, logs.String(), "not following symbolic link "+filepath.Join(testRoot, "2")+" to directory")
	assert.Contains(t, logs.String(), "not following dangling symbolic link "+filepath.Join(testRoot, "1", "gone"))
}

func TestScanner_WithReporterDoesNotMutateOriginal(t *testing.T) {
	opts := testOptions()
	fsys := fixtures.TwoSegmentRelation(opts).Build(testRoot)
	base := NewScannerWithFS(checksum.NewWithByteOrder(opts.ByteOrder), fsys, opts, logging.NewNullLogger())
	rec := &recordingReporter{}

	_ = base.WithReporter(rec)
	result := base.ScanDirectory(testRoot)

	assert.Equal(t, uint64(1), result.Corrupted)
	assert.Empty(t, rec.findings)
}

func TestNewScannerWithFS_PanicsOnNil(t *testing.T) {
	opts := testOptions()
	provider := checksum.NewWithByteOrder(opts.ByteOrder)
	fsys := filesystem.NewMemoryFileSystem(testRoot)
	logger := logging.NewNullLogger()

	assert.Panics(t, func() { NewScannerWithFS(nil, fsys, opts, logger) })
	assert.Panics(t, func() { NewScannerWithFS(provider, nil, opts, logger) })
	assert.Panics(t, func() { NewScannerWithFS(provider, fsys, opts, nil) })
}

func TestScanDirectory_OSFilesystem(t *testing.T) {
	opts := testOptions()
	root := t.TempDir()
	fixtures.TwoSegmentRelation(opts).
		AddSegment("1/1259", fixtures.Valid, fixtures.Zeroed).
		AddRaw("1/"+pgverify.RelCacheInitFileName, []byte("garbage")).
		WriteTo(t, root)

	outside := t.TempDir()
	corrupt := fixtures.NewStorageFixtureBuilder(opts).NewPage(fixtures.Corrupt, 0)
	require.NoError(t, os.WriteFile(filepath.Join(outside, "999"), corrupt, 0644))
	if err := os.Symlink(filepath.Join(outside, "999"), filepath.Join(root, "1", "999")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	s := NewScanner(checksum.NewWithByteOrder(opts.ByteOrder), opts, logging.NewNullLogger())
	result := s.ScanDirectory(root)

	assert.Equal(t, uint64(1), result.Corrupted)
	assert.Equal(t, uint64(3), result.FilesScanned)
	assert.Equal(t, uint64(1), result.FilesSkipped)
}
