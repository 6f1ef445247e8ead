package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/google/pg-page-verification/internal/cli"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(pgverify.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		// The verdict line already reports found corruption.
		if !errors.Is(err, pgverify.ErrCorruptionFound) {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(pgverify.ExitCodeForError(err))
	}
}
