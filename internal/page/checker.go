package page

import (
	"encoding/binary"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

// ChecksumMismatch is the corruption predicate: a page is corrupted when it
// carries a checksum (non-zero) that differs from the computed one.
func ChecksumMismatch(stored, computed uint16) bool {
	return stored != 0 && stored != computed
}

// Verification is the full outcome of checking one page.
type Verification struct {
	Segment          uint32
	LocalBlock       uint32
	AbsoluteBlock    uint32
	Header           Header
	ComputedChecksum uint16
	Corrupted        bool
}

// Checker verifies pages against a checksum provider.
// Checker holds no mutable state and is safe for concurrent use as long as
// the provider is.
type Checker struct {
	provider     pgverify.ChecksumProvider
	segmentPages uint32
	order        binary.ByteOrder
}

// NewChecker creates a checker for pages of the given options.
// Panics if provider is nil.
func NewChecker(provider pgverify.ChecksumProvider, opts pgverify.Options) *Checker {
	if provider == nil {
		panic("checksum provider cannot be nil")
	}
	order := opts.ByteOrder
	if order == nil {
		order = binary.NativeEndian
	}
	return &Checker{
		provider:     provider,
		segmentPages: opts.SegmentPages,
		order:        order,
	}
}

// Verify checks one full page read at localBlock of the segment file at filePath.
// page must be at least PageHeaderSize bytes long.
func (c *Checker) Verify(page []byte, localBlock uint32, filePath string) Verification {
	segment := ParseSegmentNumber(filePath)
	absolute := AbsoluteBlock(segment, c.segmentPages, localBlock)

	// The length was checked by the caller, so the error cannot occur.
	header, _ := ParseHeader(page, c.order)
	computed := c.provider.Checksum(page, absolute)

	return Verification{
		Segment:          segment,
		LocalBlock:       localBlock,
		AbsoluteBlock:    absolute,
		Header:           header,
		ComputedChecksum: computed,
		Corrupted:        ChecksumMismatch(header.Checksum, computed),
	}
}

// IsCorrupted reports whether the page fails checksum verification.
func (c *Checker) IsCorrupted(page []byte, localBlock uint32, filePath string) bool {
	return c.Verify(page, localBlock, filePath).Corrupted
}
