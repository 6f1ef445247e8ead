// Package report turns scan results into the output of a run: verbose
// corruption diagnostics, page dumps, the final verdict line and the JSON
// report.
package report
