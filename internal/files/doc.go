// Package files groups the storage-tree access used by a scan.
//
// Sub-packages:
//   - filesystem: read-only filesystem abstraction with OS and in-memory implementations
//   - scanner: directory walk and per-segment page verification
//
// # Usage
//
//	import (
//	    "github.com/google/pg-page-verification/internal/checksum"
//	    "github.com/google/pg-page-verification/internal/files/scanner"
//	)
//
//	s := scanner.NewScanner(checksum.New(), pgverify.DefaultOptions(), logger)
//	result := s.ScanDirectory("/var/lib/postgresql/data/base")
//	fmt.Println(result.Verdict())
package files
