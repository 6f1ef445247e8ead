package pgverify

// Exit codes.
// Every failure, including found corruption, exits with 1 so that shell
// scripts can treat any non-zero status as "needs attention".
const (
	ExitSuccess         = 0 // Scan completed, no corruption
	ExitCorruptionFound = 1 // Scan completed, corrupted blocks reported
	ExitGeneralError    = 1 // Unknown or unclassified error
	ExitUsageError      = 1 // CLI usage error (invalid flags)
	ExitConfigError     = 1 // Missing data directory or invalid options
	ExitPanic           = 3 // Internal panic (unexpected crash)
)

// Storage format defaults of a stock PostgreSQL build.
const (
	// DefaultBlockSize is BLCKSZ, the size of one page in bytes.
	DefaultBlockSize = 8192

	// DefaultSegmentPages is RELSEG_SIZE, the number of pages held by one
	// segment file (1 GiB of 8 KiB pages).
	DefaultSegmentPages = 131072

	// MinBlockSize and MaxBlockSize bound the block sizes PostgreSQL can be
	// configured with.
	MinBlockSize = 1024
	MaxBlockSize = 32768

	// PageHeaderSize is the size of PageHeaderData.
	PageHeaderSize = 24

	// DefaultMaxFindings caps the findings kept for the JSON report.
	DefaultMaxFindings = 1000
)

const (
	// BaseDirName is the directory under the data directory holding one
	// subdirectory per database.
	BaseDirName = "base"

	// RelCacheInitFileName is the relation cache init file. It is rebuilt at
	// server startup and routinely fails checksum validation, so it is never scanned.
	RelCacheInitFileName = "pg_internal.init"
)
