package pgverify

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := cli.Execute()
//	if errors.Is(err, pgverify.ErrCorruptionFound) {
//	    // verdict line was already printed
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBaseDirNotFound indicates the base directory is missing or not a directory.
	ErrBaseDirNotFound = errors.New("base directory not found")

	// ErrCorruptionFound indicates the scan completed and reported corrupted blocks.
	ErrCorruptionFound = errors.New("corruption found")
)

// usageErrorPatterns are fragments of the errors cobra and pflag return for
// command line misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"required flag",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrCorruptionFound):
		return ExitCorruptionFound
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrBaseDirNotFound):
		return ExitConfigError
	}

	if IsUsageError(err) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// IsUsageError reports whether err looks like a command line parsing error.
func IsUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
