package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Environment variables consulted during resolution.
const (
	EnvDataDir = "PGDATA"
	EnvNoColor = "NO_COLOR"
)

// Overrides are values given on the command line. Nil fields were not given.
type Overrides struct {
	DataDir       *string
	BlockSize     *int
	SegmentPages  *uint32
	ByteOrder     *string
	Output        *string
	MaxFindings   *int
	SkipFiles     []string
	NoColor       bool
	Verbose       bool
	DumpCorrupted bool
}

// Settings is the fully resolved configuration of one run.
type Settings struct {
	DataDir     string
	BaseDir     string
	Output      string
	MaxFindings int
	NoColor     bool
	Options     pgverify.Options
}

// Resolve merges command line overrides, the environment and the config file
// into validated settings.
// Priority (highest to lowest): command line > environment > config file > defaults.
// file may be nil. getenv is usually os.Getenv.
func Resolve(o Overrides, file *ScanConfig, getenv func(string) string) (Settings, error) {
	if file == nil {
		file = &ScanConfig{}
	}
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	s := Settings{
		Output:      OutputText,
		MaxFindings: pgverify.DefaultMaxFindings,
		Options:     pgverify.DefaultOptions(),
	}
	var errs []error

	switch {
	case o.DataDir != nil && *o.DataDir != "":
		s.DataDir = *o.DataDir
	case getenv(EnvDataDir) != "":
		s.DataDir = getenv(EnvDataDir)
	default:
		s.DataDir = file.DataDir
	}
	if s.DataDir == "" {
		errs = append(errs, fmt.Errorf("no data directory specified, use -D or set %s: %w", EnvDataDir, pgverify.ErrInvalidConfig))
	} else {
		s.BaseDir = filepath.Join(s.DataDir, pgverify.BaseDirName)
	}

	if file.BlockSize != 0 {
		s.Options.BlockSize = file.BlockSize
	}
	if o.BlockSize != nil {
		s.Options.BlockSize = *o.BlockSize
	}

	if file.SegmentPages != 0 {
		s.Options.SegmentPages = file.SegmentPages
	}
	if o.SegmentPages != nil {
		s.Options.SegmentPages = *o.SegmentPages
	}

	byteOrder := file.ByteOrder
	if o.ByteOrder != nil {
		byteOrder = *o.ByteOrder
	}
	order, err := pgverify.ParseByteOrder(byteOrder)
	if err != nil {
		errs = append(errs, err)
	} else {
		s.Options.ByteOrder = order
	}

	if file.Output != "" {
		s.Output = file.Output
	}
	if o.Output != nil {
		s.Output = *o.Output
	}
	if s.Output != OutputText && s.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("unknown output format %q (want %s or %s): %w",
			s.Output, OutputText, OutputJSON, pgverify.ErrInvalidConfig))
	}

	if file.MaxFindings != nil {
		s.MaxFindings = *file.MaxFindings
	}
	if o.MaxFindings != nil {
		s.MaxFindings = *o.MaxFindings
	}

	s.Options.SkipFiles = append(append([]string(nil), file.SkipFiles...), o.SkipFiles...)
	s.NoColor = o.NoColor || getenv(EnvNoColor) != "" || file.NoColor
	s.Options.Verbose = o.Verbose
	s.Options.DumpCorrupted = o.DumpCorrupted

	if err := s.Options.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	return s, nil
}
