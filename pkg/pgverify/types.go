package pgverify

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ChecksumProvider computes the page checksum the storage engine would store
// for a page at an absolute block number. Implementations must match the
// engine's algorithm bit for bit and must not modify page.
type ChecksumProvider interface {
	Checksum(page []byte, blkno uint32) uint16
}

// Options is the immutable scan configuration threaded through every
// component of a run.
type Options struct {
	// BlockSize is the page size in bytes (BLCKSZ).
	BlockSize int

	// SegmentPages is the number of pages per segment file (RELSEG_SIZE).
	SegmentPages uint32

	// ByteOrder is the byte order the cluster was written in.
	ByteOrder binary.ByteOrder

	// SkipFiles lists additional file names that are never scanned.
	// RelCacheInitFileName is always skipped.
	SkipFiles []string

	// Verbose enables per-entry and per-page diagnostics.
	Verbose bool

	// DumpCorrupted requests a dump of every corrupted page.
	DumpCorrupted bool
}

// DefaultOptions returns the options of a stock PostgreSQL build on the
// host's byte order.
func DefaultOptions() Options {
	return Options{
		BlockSize:    DefaultBlockSize,
		SegmentPages: DefaultSegmentPages,
		ByteOrder:    binary.NativeEndian,
	}
}

// Validate checks the options against the limits of the page format.
// It returns a multi-error if multiple validation failures occur.
func (o Options) Validate() error {
	var errs []error

	if o.BlockSize < MinBlockSize || o.BlockSize > MaxBlockSize || o.BlockSize&(o.BlockSize-1) != 0 {
		errs = append(errs, fmt.Errorf("block size must be a power of two between %d and %d, got %d: %w",
			MinBlockSize, MaxBlockSize, o.BlockSize, ErrInvalidConfig))
	}

	if o.SegmentPages == 0 {
		errs = append(errs, fmt.Errorf("segment pages must be positive: %w", ErrInvalidConfig))
	}

	if o.ByteOrder == nil {
		errs = append(errs, fmt.Errorf("byte order is required: %w", ErrInvalidConfig))
	}

	for _, name := range o.SkipFiles {
		if name == "" || strings.ContainsAny(name, `/\`) {
			errs = append(errs, fmt.Errorf("skip file %q must be a plain file name: %w", name, ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// Skips reports whether a file with the given base name is excluded from scanning.
func (o Options) Skips(name string) bool {
	if name == RelCacheInitFileName {
		return true
	}
	for _, skip := range o.SkipFiles {
		if name == skip {
			return true
		}
	}
	return false
}

// ParseByteOrder maps "native", "little" or "big" to a byte order.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "native":
		return binary.NativeEndian, nil
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q (want native, little or big): %w", name, ErrInvalidConfig)
	}
}

// ScanResult accumulates the outcome of scanning files and directories.
// Results combine by addition, so traversal order never changes a total.
type ScanResult struct {
	// Corrupted is the number of corruption units: mismatching pages,
	// truncated trailing pages and files that could not be read.
	Corrupted uint64

	FilesScanned   uint64
	FilesSkipped   uint64
	PagesScanned   uint64
	EntriesSkipped uint64
}

// Add returns the sum of r and other.
func (r ScanResult) Add(other ScanResult) ScanResult {
	return ScanResult{
		Corrupted:      r.Corrupted + other.Corrupted,
		FilesScanned:   r.FilesScanned + other.FilesScanned,
		FilesSkipped:   r.FilesSkipped + other.FilesSkipped,
		PagesScanned:   r.PagesScanned + other.PagesScanned,
		EntriesSkipped: r.EntriesSkipped + other.EntriesSkipped,
	}
}

// Verdict maps the corrupted count to the final verdict of a run.
func (r ScanResult) Verdict() Verdict {
	if r.Corrupted == 0 {
		return Verdict{Status: StatusClean}
	}
	return Verdict{Status: StatusCorrupt, Corrupted: r.Corrupted}
}

// Status is the terminal state of a scan.
type Status int

const (
	StatusClean Status = iota
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Verdict is Clean or Corrupt(n).
type Verdict struct {
	Status    Status
	Corrupted uint64
}

// Clean reports whether no corruption was found.
func (v Verdict) Clean() bool { return v.Status == StatusClean }

// String returns the verdict line printed at the end of a run.
func (v Verdict) String() string {
	if v.Clean() {
		return "NO CORRUPTION FOUND"
	}
	return fmt.Sprintf("CORRUPTION FOUND: %d", v.Corrupted)
}

// Err returns nil for a clean verdict and an error wrapping ErrCorruptionFound otherwise.
func (v Verdict) Err() error {
	if v.Clean() {
		return nil
	}
	return fmt.Errorf("%w: %d corrupted blocks", ErrCorruptionFound, v.Corrupted)
}

// Reason classifies a corruption unit.
type Reason int

const (
	ReasonChecksumMismatch Reason = iota
	ReasonTruncatedPage
	ReasonOpenFailed
	ReasonReadFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonChecksumMismatch:
		return "checksum mismatch"
	case ReasonTruncatedPage:
		return "truncated page"
	case ReasonOpenFailed:
		return "open failed"
	case ReasonReadFailed:
		return "read failed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Finding describes one corruption unit.
type Finding struct {
	Path          string
	Reason        Reason
	Segment       uint32
	LocalBlock    uint32
	AbsoluteBlock uint32

	// StoredChecksum and ComputedChecksum are set for checksum mismatches.
	StoredChecksum   uint16
	ComputedChecksum uint16

	// Page holds the raw page for checksum mismatches and truncated pages.
	// The buffer is reused by the scanner; it is valid only during Report.
	Page []byte

	// Err is the underlying I/O error for open and read failures.
	Err error
}

// FindingReporter receives every corruption unit as it is found.
type FindingReporter interface {
	Report(f Finding)
}
