package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/google/pg-page-verification/internal/checksum"
	"github.com/google/pg-page-verification/internal/config"
	"github.com/google/pg-page-verification/internal/files/filesystem"
	"github.com/google/pg-page-verification/internal/files/scanner"
	"github.com/google/pg-page-verification/internal/logging"
	"github.com/google/pg-page-verification/internal/report"
	"github.com/google/pg-page-verification/pkg/pgverify"
)

func runScan(cmd *cobra.Command, flags *scanFlags) error {
	settings, err := loadSettings(cmd, flags)
	if err != nil {
		return err
	}

	fsProvider := filesystem.NewOSFileSystem()
	if err := checkBaseDir(fsProvider, settings.BaseDir); err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	opts := settings.Options

	logger := logging.NewConsoleLogger(opts.Verbose,
		logging.WithWriter(stderr),
		logging.WithColor(report.ShouldStyle(stderr, settings.NoColor)),
	)
	collector := report.NewCollector(logger, opts,
		report.WithDumpWriter(stderr),
		report.WithMaxFindings(settings.MaxFindings),
	)
	s := scanner.NewScannerWithFS(checksum.NewWithByteOrder(opts.ByteOrder), fsProvider, opts, logger).
		WithReporter(collector)

	logger.Verbose("scanning %s (block size %d, %d pages per segment)", settings.BaseDir, opts.BlockSize, opts.SegmentPages)
	started := time.Now()
	result := s.ScanDirectory(settings.BaseDir)
	elapsed := time.Since(started)
	logger.Verbose("scanned %d files and %d pages in %s, skipped %d files and %d entries",
		result.FilesScanned, result.PagesScanned, elapsed.Round(time.Millisecond), result.FilesSkipped, result.EntriesSkipped)

	verdict := result.Verdict()
	switch settings.Output {
	case config.OutputJSON:
		run := report.Run{
			ID:        uuid.New(),
			DataDir:   settings.DataDir,
			BaseDir:   settings.BaseDir,
			StartedAt: started,
			Duration:  elapsed,
			Options:   opts,
			Result:    result,
		}
		if err := report.WriteJSON(stdout, report.NewReport(run, collector)); err != nil {
			return err
		}
	default:
		if err := report.RenderVerdict(stdout, verdict, report.ShouldStyle(stdout, settings.NoColor)); err != nil {
			return fmt.Errorf("failed to write verdict: %w", err)
		}
	}

	return verdict.Err()
}

// loadSettings loads .env and the config file and resolves them with the flags.
func loadSettings(cmd *cobra.Command, flags *scanFlags) (config.Settings, error) {
	if err := config.LoadDotEnv(config.DotEnvFileName); err != nil {
		return config.Settings{}, err
	}

	file, err := loadConfigFile(flags.configPath)
	if err != nil {
		return config.Settings{}, err
	}

	return config.Resolve(flags.overrides(cmd), file, os.Getenv)
}

// loadConfigFile reads an explicit config file, or the default one from the
// working directory if it exists.
func loadConfigFile(path string) (*config.ScanConfig, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %w", err, pgverify.ErrInvalidConfig)
		}
		return cfg, err
	}

	cfg, err := config.LoadFile(config.ConfigFileName)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, nil
	}
	return cfg, err
}

// checkBaseDir verifies that baseDir itself, not a link to one, is a directory.
func checkBaseDir(fsProvider filesystem.FileSystemProvider, baseDir string) error {
	info, err := fsProvider.Lstat(baseDir)
	if err != nil {
		return fmt.Errorf("base %s: %v: %w", baseDir, err, pgverify.ErrBaseDirNotFound)
	}
	if filesystem.KindOf(info.Mode()) != filesystem.KindDirectory {
		return fmt.Errorf("base %s is not a directory: %w", baseDir, pgverify.ErrBaseDirNotFound)
	}
	return nil
}
