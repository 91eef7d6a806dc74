package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file access to the configured notice directory
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a new path validator for the given directory
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{configuredDirectory: filepath.Clean(abs)}, nil
}

// GetConfiguredDirectory returns the configured directory path
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.configuredDirectory
}

// ResolvePath makes path absolute, interpreting relative paths against the
// configured directory, and checks that it stays inside it.
func (v *PathValidator) ResolvePath(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.configuredDirectory, path)
	}
	path = filepath.Clean(path)

	if err := v.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// ValidatePath checks if a path is within the configured directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	within, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// IsPathWithinDirectory checks if a path, after resolving symlinks on both
// sides, is the configured directory or below it.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	dir := realPath(v.configuredDirectory)
	target := realPath(filepath.Clean(absPath))

	if target == dir {
		return true, nil
	}
	return strings.HasPrefix(target, dir+string(filepath.Separator)), nil
}

// ValidateDirectory checks if a directory path is within the configured directory
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	if err := v.ValidatePath(dirPath); err != nil {
		return err
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}

// realPath resolves symlinks when the path exists and returns it cleaned
func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return filepath.Clean(resolved)
	}
	return filepath.Clean(path)
}
