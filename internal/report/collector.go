package report

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/google/pg-page-verification/internal/page"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

// FindingRecord is the retained form of a pgverify.Finding. It owns no page bytes.
type FindingRecord struct {
	Path             string          `json:"path"`
	Reason           pgverify.Reason `json:"reason"`
	Segment          uint32          `json:"segment"`
	LocalBlock       uint32          `json:"local_block"`
	AbsoluteBlock    uint32          `json:"absolute_block"`
	StoredChecksum   uint16          `json:"stored_checksum,omitempty"`
	ComputedChecksum uint16          `json:"computed_checksum,omitempty"`
	Error            string          `json:"error,omitempty"`
}

func newFindingRecord(f pgverify.Finding) FindingRecord {
	rec := FindingRecord{
		Path:             f.Path,
		Reason:           f.Reason,
		Segment:          f.Segment,
		LocalBlock:       f.LocalBlock,
		AbsoluteBlock:    f.AbsoluteBlock,
		StoredChecksum:   f.StoredChecksum,
		ComputedChecksum: f.ComputedChecksum,
	}
	if f.Err != nil {
		rec.Error = f.Err.Error()
	}
	return rec
}

// Collector implements pgverify.FindingReporter.
// It logs each corruption in verbose mode, dumps corrupted pages on request
// and keeps up to a fixed number of findings for the JSON report.
type Collector struct {
	logger        pgverify.Logger
	order         binary.ByteOrder
	dumpCorrupted bool
	dump          io.Writer
	max           int

	findings []FindingRecord
	dropped  uint64
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithDumpWriter sets where page dumps are written. Defaults to os.Stderr.
func WithDumpWriter(w io.Writer) CollectorOption {
	return func(c *Collector) { c.dump = w }
}

// WithMaxFindings caps the number of retained findings. A negative value
// keeps every finding; zero keeps none.
func WithMaxFindings(n int) CollectorOption {
	return func(c *Collector) { c.max = n }
}

// NewCollector creates a collector for a run with the given options.
// Panics if logger is nil.
func NewCollector(logger pgverify.Logger, opts pgverify.Options, options ...CollectorOption) *Collector {
	if logger == nil {
		panic("logger cannot be nil")
	}
	c := &Collector{
		logger:        logger,
		order:         opts.ByteOrder,
		dumpCorrupted: opts.DumpCorrupted,
		max:           pgverify.DefaultMaxFindings,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Report implements pgverify.FindingReporter.
func (c *Collector) Report(f pgverify.Finding) {
	switch f.Reason {
	case pgverify.ReasonChecksumMismatch:
		c.logger.Verbose("corruption found in %s[%d], expected %x, found %x",
			f.Path, f.LocalBlock, f.ComputedChecksum, f.StoredChecksum)
	case pgverify.ReasonTruncatedPage:
		c.logger.Verbose("corruption found in %s[%d], short page of %d bytes",
			f.Path, f.LocalBlock, len(f.Page))
	}

	if c.dumpCorrupted && len(f.Page) > 0 {
		c.dumpPage(f)
	}

	if c.max >= 0 && len(c.findings) >= c.max {
		c.dropped++
		return
	}
	c.findings = append(c.findings, newFindingRecord(f))
}

func (c *Collector) dumpPage(f pgverify.Finding) {
	w := c.dump
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "%s %s[%d] (absolute block %d):\n", f.Reason, f.Path, f.LocalBlock, f.AbsoluteBlock)
	if c.order != nil {
		if header, err := page.ParseHeader(f.Page, c.order); err == nil {
			spew.Fdump(w, header)
		}
	}
	spew.Fdump(w, f.Page)
}

// Findings returns the retained findings in the order they were reported.
func (c *Collector) Findings() []FindingRecord {
	return c.findings
}

// Dropped returns the number of findings that exceeded the retention cap.
func (c *Collector) Dropped() uint64 {
	return c.dropped
}

var _ pgverify.FindingReporter = (*Collector)(nil)
