package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

// DotEnvFileName is the environment file loaded from the working directory.
const DotEnvFileName = ".env"

// LoadDotEnv loads variables from an environment file without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %v: %w", path, err, pgverify.ErrInvalidConfig)
	}
	return nil
}
