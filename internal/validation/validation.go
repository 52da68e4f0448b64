// Package validation checks command line inputs before any work is done.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsValidBucketDir checks that a backfill location exists under root and
// does not escape it.
func IsValidBucketDir(root, location string) error {
	if location == "" || !filepath.IsLocal(location) {
		return fmt.Errorf("location must be a relative directory inside %s: %q", root, location)
	}
	path := filepath.Join(root, location)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	return nil
}

// IsValidOutputFormat checks if the given report format is supported.
func IsValidOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case "csv", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'csv', 'json', 'yaml'", format)
	}
}

// IsValidOutputPath checks that a report can be written to path: it must not
// be a directory.
func IsValidOutputPath(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("output path %s is a directory", path)
	}
	return nil
}

// IsValidFilePermissions rejects modes that let other users write the file.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0002 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600 or 0644", mode.String())
	}
	return nil
}
