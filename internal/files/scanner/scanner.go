package scanner

import (
	"io/fs"
	"path/filepath"

	"github.com/google/pg-page-verification/internal/files/filesystem"
	"github.com/google/pg-page-verification/internal/page"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

// Scanner verifies the pages of a storage tree.
// A Scanner is used by one goroutine at a time; a scan is strictly sequential.
type Scanner struct {
	checker    *page.Checker
	fsProvider filesystem.FileSystemProvider
	opts       pgverify.Options
	logger     pgverify.Logger
	reporter   pgverify.FindingReporter
}

// NewScanner creates a new scanner over the OS filesystem.
// Panics if provider or logger is nil.
func NewScanner(provider pgverify.ChecksumProvider, opts pgverify.Options, logger pgverify.Logger) *Scanner {
	return NewScannerWithFS(provider, filesystem.NewOSFileSystem(), opts, logger)
}

// NewScannerWithFS creates a new scanner with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if provider, fsProvider or logger is nil.
func NewScannerWithFS(provider pgverify.ChecksumProvider, fsProvider filesystem.FileSystemProvider, opts pgverify.Options, logger pgverify.Logger) *Scanner {
	if provider == nil {
		panic("checksum provider cannot be nil")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Scanner{
		checker:    page.NewChecker(provider, opts),
		fsProvider: fsProvider,
		opts:       opts,
		logger:     logger,
	}
}

// WithReporter returns a copy of the scanner that sends every corruption
// unit to r.
func (s *Scanner) WithReporter(r pgverify.FindingReporter) *Scanner {
	clone := *s
	clone.reporter = r
	return &clone
}

func (s *Scanner) report(f pgverify.Finding) {
	if s.reporter != nil {
		s.reporter.Report(f)
	}
}

// ScanDirectory visits every entry below dirPath and returns the summed
// result of all regular files found.
//
// Entries are classified with Lstat, so symbolic links are never followed.
// Sockets, devices and other special files are ignored. An entry that cannot
// be classified, or a directory that cannot be listed, is logged and
// contributes nothing; its siblings are still visited.
//
// Directories are processed from an explicit stack instead of recursion.
func (s *Scanner) ScanDirectory(dirPath string) pgverify.ScanResult {
	var result pgverify.ScanResult
	pending := []string{dirPath}

	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		s.logger.Verbose("scanning directory: %s", dir)

		names, err := s.fsProvider.ReadDirNames(dir)
		if err != nil {
			s.logger.Error("%s: cannot read directory: %v", dir, err)
			result.EntriesSkipped++
			continue
		}

		var subdirs []string
		for _, name := range names {
			if name == "." || name == ".." {
				continue
			}
			entryPath := filepath.Join(dir, name)

			info, err := s.fsProvider.Lstat(entryPath)
			if err != nil {
				s.logger.Error("%s: cannot determine entry type: %v", entryPath, err)
				result.EntriesSkipped++
				continue
			}

			kind := filesystem.KindOf(info.Mode())
			s.logger.Verbose("direntry: %s - %s (%s)", entryPath, kind, info.Mode())

			switch kind {
			case filesystem.KindDirectory:
				subdirs = append(subdirs, entryPath)
			case filesystem.KindRegular:
				result = result.Add(s.ScanFile(entryPath))
			default:
				if s.opts.Verbose && info.Mode()&fs.ModeSymlink != 0 {
					s.logSymlink(entryPath)
				}
			}
		}

		// Pushed in reverse so subdirectories pop in lexical order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			pending = append(pending, subdirs[i])
		}
	}

	return result
}

// logSymlink names the kind of entry a skipped link points at.
func (s *Scanner) logSymlink(linkPath string) {
	target, err := s.fsProvider.Stat(linkPath)
	if err != nil {
		s.logger.Verbose("not following dangling symbolic link %s: %v", linkPath, err)
		return
	}
	s.logger.Verbose("not following symbolic link %s to %s", linkPath, filesystem.KindOf(target.Mode()))
}
