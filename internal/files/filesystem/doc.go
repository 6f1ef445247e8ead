// Package filesystem provides the storage tree access used by the scanner.
//
// The abstraction is deliberately link-unaware: entries are classified with
// Lstat, so symbolic links are reported as links and never traversed.
//
// Key interfaces:
//   - FileSystemProvider: directory listing, Lstat/Stat and read-only file access
//
// Implementations:
//   - OSFileSystem: Production implementation using the OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing, with failure
//     injection for open, read, lstat and directory listing errors
package filesystem
