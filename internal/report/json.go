package report

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

// Counters are the diagnostic totals of a run.
type Counters struct {
	Corrupted      uint64 `json:"corrupted"`
	FilesScanned   uint64 `json:"files_scanned"`
	FilesSkipped   uint64 `json:"files_skipped"`
	PagesScanned   uint64 `json:"pages_scanned"`
	EntriesSkipped uint64 `json:"entries_skipped"`
}

// Run describes one completed scan.
type Run struct {
	ID        uuid.UUID
	DataDir   string
	BaseDir   string
	StartedAt time.Time
	Duration  time.Duration
	Options   pgverify.Options
	Result    pgverify.ScanResult
}

// Report is the JSON document printed by --output json.
type Report struct {
	RunID        uuid.UUID `json:"run_id"`
	DataDir      string    `json:"data_dir"`
	BaseDir      string    `json:"base_dir"`
	StartedAt    time.Time `json:"started_at"`
	DurationMS   int64     `json:"duration_ms"`
	BlockSize    int       `json:"block_size"`
	SegmentPages uint32    `json:"segment_pages"`
	ByteOrder    string    `json:"byte_order"`

	Counters Counters        `json:"counters"`
	Verdict  pgverify.Status `json:"verdict"`
	Message  string          `json:"message"`

	Findings        []FindingRecord `json:"findings"`
	FindingsDropped uint64          `json:"findings_dropped"`
}

// NewReport assembles the report of run. Findings come from c, which may be nil.
func NewReport(run Run, c *Collector) Report {
	verdict := run.Result.Verdict()
	r := Report{
		RunID:        run.ID,
		DataDir:      run.DataDir,
		BaseDir:      run.BaseDir,
		StartedAt:    run.StartedAt.UTC(),
		DurationMS:   run.Duration.Milliseconds(),
		BlockSize:    run.Options.BlockSize,
		SegmentPages: run.Options.SegmentPages,
		ByteOrder:    byteOrderName(run.Options.ByteOrder),
		Counters: Counters{
			Corrupted:      run.Result.Corrupted,
			FilesScanned:   run.Result.FilesScanned,
			FilesSkipped:   run.Result.FilesSkipped,
			PagesScanned:   run.Result.PagesScanned,
			EntriesSkipped: run.Result.EntriesSkipped,
		},
		Verdict:  verdict.Status,
		Message:  verdict.String(),
		Findings: []FindingRecord{},
	}
	if c != nil {
		r.Findings = append(r.Findings, c.Findings()...)
		r.FindingsDropped = c.Dropped()
	}
	return r
}

func byteOrderName(order binary.ByteOrder) string {
	switch order {
	case nil:
		return ""
	case binary.LittleEndian:
		return "little"
	case binary.BigEndian:
		return "big"
	default:
		return "native"
	}
}

// WriteJSON writes r to w as indented JSON followed by a newline.
func WriteJSON(w io.Writer, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
