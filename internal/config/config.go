package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ScanConfig is the content of pg_page_verification.yaml.
// Zero values mean "not set" and leave the default in place.
type ScanConfig struct {
	DataDir      string   `yaml:"data_dir"`
	BlockSize    int      `yaml:"block_size,omitempty"`
	SegmentPages uint32   `yaml:"segment_pages,omitempty"`
	ByteOrder    string   `yaml:"byte_order,omitempty"`
	SkipFiles    []string `yaml:"skip_files,omitempty"`
	Output       string   `yaml:"output,omitempty"`
	MaxFindings  *int     `yaml:"max_findings,omitempty"`
	NoColor      bool     `yaml:"no_color,omitempty"`
}

const ConfigFileName = "pg_page_verification.yaml"

// Load reads ConfigFileName from dir.
func Load(dir string) (*ScanConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a config file. Unknown keys are rejected.
func LoadFile(path string) (*ScanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg ScanConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %v: %w", path, err, pgverify.ErrInvalidConfig)
	}
	return &cfg, nil
}
