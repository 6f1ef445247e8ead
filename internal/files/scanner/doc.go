// Package scanner walks a PostgreSQL base directory and verifies every page
// of every segment file it finds.
//
// The scanner is responsible for:
//   - Visiting directories without following symbolic links
//   - Reading segment files page by page and checking each page's checksum
//   - Counting corruption units: mismatching pages, truncated trailing pages
//     and files that cannot be opened or read
//   - Reporting each corruption unit to an optional pgverify.FindingReporter
//
// Every failure below the base directory is recoverable: it is counted (or
// logged and skipped) and the walk continues. The scanner never modifies files.
//
// The scanner is filesystem-agnostic through the filesystem.FileSystemProvider
// interface, enabling both production use with the OS filesystem and testing
// with in-memory filesystems.
package scanner
