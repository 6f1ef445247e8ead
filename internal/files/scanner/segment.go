package scanner

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/google/pg-page-verification/internal/page"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

// ScanFile verifies every page of one segment file.
//
// Each full page whose checksum fails verification counts as one corrupted
// block. A trailing partial page counts as one, as does a file that cannot be
// opened or a read error. The relation cache init file and configured skip
// files contribute nothing.
func (s *Scanner) ScanFile(filePath string) pgverify.ScanResult {
	if s.opts.Skips(filepath.Base(filePath)) {
		s.logger.Verbose("skipping %s", filePath)
		return pgverify.ScanResult{FilesSkipped: 1}
	}

	s.logger.Verbose("scanning segment file: %s", filePath)

	f, err := s.fsProvider.OpenFile(filePath)
	if err != nil {
		s.logger.Error("%v: %s cannot be opened", err, filePath)
		s.report(pgverify.Finding{
			Path:    filePath,
			Reason:  pgverify.ReasonOpenFailed,
			Segment: page.ParseSegmentNumber(filePath),
			Err:     err,
		})
		return pgverify.ScanResult{Corrupted: 1}
	}
	defer f.Close()

	result := pgverify.ScanResult{FilesScanned: 1}
	buf := make([]byte, s.opts.BlockSize)

	for blkno := uint32(0); ; blkno++ {
		n, err := io.ReadFull(f, buf)
		if err == nil {
			result.PagesScanned++
			if s.verifyPage(buf, blkno, filePath) {
				result.Corrupted++
			}
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
		case errors.Is(err, io.ErrUnexpectedEOF):
			s.logger.Verbose("%s[%d]: short read of %d bytes", filePath, blkno, n)
			result.Corrupted++
			s.report(s.blockFinding(filePath, blkno, pgverify.ReasonTruncatedPage, buf[:n], nil))
		default:
			s.logger.Error("%v: %s[%d] cannot be read", err, filePath, blkno)
			result.Corrupted++
			s.report(s.blockFinding(filePath, blkno, pgverify.ReasonReadFailed, nil, err))
		}
		return result
	}
}

// verifyPage checks one full page and reports it when corrupted.
func (s *Scanner) verifyPage(buf []byte, blkno uint32, filePath string) bool {
	v := s.checker.Verify(buf, blkno, filePath)

	s.logger.Verbose("%s[%d]: segment=%d absolute=%d computed=%x %s",
		filePath, blkno, v.Segment, v.AbsoluteBlock, v.ComputedChecksum, v.Header)

	if v.Corrupted {
		s.report(pgverify.Finding{
			Path:             filePath,
			Reason:           pgverify.ReasonChecksumMismatch,
			Segment:          v.Segment,
			LocalBlock:       v.LocalBlock,
			AbsoluteBlock:    v.AbsoluteBlock,
			StoredChecksum:   v.Header.Checksum,
			ComputedChecksum: v.ComputedChecksum,
			Page:             buf,
		})
	}
	return v.Corrupted
}

func (s *Scanner) blockFinding(filePath string, blkno uint32, reason pgverify.Reason, pg []byte, err error) pgverify.Finding {
	segment := page.ParseSegmentNumber(filePath)
	return pgverify.Finding{
		Path:          filePath,
		Reason:        reason,
		Segment:       segment,
		LocalBlock:    blkno,
		AbsoluteBlock: page.AbsoluteBlock(segment, s.opts.SegmentPages, blkno),
		Page:          pg,
		Err:           err,
	}
}
