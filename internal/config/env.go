package config

import (
	"fmt"
	"os"

	"bcgov/pay-reconciler/internal/fileutils"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files, or from ./.env when
// none are named. Missing files and directories are skipped and variables
// already set in the environment win. It returns the files that were loaded.
func LoadEnv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var loaded []string
	for _, f := range files {
		if !fileutils.FileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return loaded, fmt.Errorf("error loading %s: %w", f, err)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
