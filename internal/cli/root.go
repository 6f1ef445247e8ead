package cli

import (
	"github.com/spf13/cobra"

	"github.com/google/pg-page-verification/internal/config"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

const rootLong = `pg_page_verification scans the base directory of a stopped PostgreSQL cluster
and verifies the checksum of every data page. Pages with a stored checksum of 0
were never signed and are not reported.

The last line on stdout is either "NO CORRUPTION FOUND" or
"CORRUPTION FOUND: <n>", where n counts corrupted pages, truncated trailing
pages and files that could not be read.

Configuration is resolved from command line flags, then the environment
(PGDATA, NO_COLOR, optionally from a .env file), then pg_page_verification.yaml,
then built-in defaults.

Exit Codes:
  0  - No corruption found
  1  - Corruption found, invalid configuration or usage error
  3  - Panic or unexpected system error`

// scanFlags holds the flag values of one command instance.
type scanFlags struct {
	dataDir       string
	verbose       bool
	dumpCorrupted bool
	configPath    string
	output        string
	blockSize     int
	segmentPages  uint32
	byteOrder     string
	skipFiles     []string
	maxFindings   int
	noColor       bool
}

var rootCmd = newRootCmd()

// newRootCmd builds the command tree with fresh flag storage.
func newRootCmd() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "pg_page_verification -D <datadir>",
		Short: "Verify PostgreSQL data page checksums offline",
		Long:  rootLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.Flags()
	f.StringVarP(&flags.dataDir, "datadir", "D", "", "data directory; its base subdirectory is scanned (default $PGDATA)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "print every directory entry, page and corruption")
	f.BoolVarP(&flags.dumpCorrupted, "dumpcorrupted", "c", false, "dump corrupted pages to stderr")
	f.StringVar(&flags.configPath, "config", "", "config file (default ./"+config.ConfigFileName+" when present)")
	f.StringVarP(&flags.output, "output", "o", config.OutputText, "output format: text or json")
	f.IntVar(&flags.blockSize, "block-size", pgverify.DefaultBlockSize, "page size in bytes")
	f.Uint32Var(&flags.segmentPages, "segment-pages", pgverify.DefaultSegmentPages, "pages per segment file")
	f.StringVar(&flags.byteOrder, "byte-order", "native", "byte order of the data files: native, little or big")
	f.StringSliceVar(&flags.skipFiles, "skip", nil, "additional file names to skip (repeatable)")
	f.IntVar(&flags.maxFindings, "max-findings", pgverify.DefaultMaxFindings, "findings kept in the JSON report (-1 for all)")
	f.BoolVar(&flags.noColor, "no-color", false, "disable coloured output")

	registerCompletions(cmd)
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// overrides returns the flags the user actually set.
func (f *scanFlags) overrides(cmd *cobra.Command) config.Overrides {
	changed := cmd.Flags().Changed
	o := config.Overrides{
		SkipFiles:     f.skipFiles,
		NoColor:       f.noColor,
		Verbose:       f.verbose,
		DumpCorrupted: f.dumpCorrupted,
	}
	if changed("datadir") {
		o.DataDir = &f.dataDir
	}
	if changed("block-size") {
		o.BlockSize = &f.blockSize
	}
	if changed("segment-pages") {
		o.SegmentPages = &f.segmentPages
	}
	if changed("byte-order") {
		o.ByteOrder = &f.byteOrder
	}
	if changed("output") {
		o.Output = &f.output
	}
	if changed("max-findings") {
		o.MaxFindings = &f.maxFindings
	}
	return o
}
