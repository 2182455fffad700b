// Package security guards the paths the command-line tools write reports and
// rendered audio to.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned when a path resolves outside every allowed
// directory.
var ErrPathEscapes = errors.New("path outside allowed directories")

// canonical returns the absolute path with symlinks resolved. For a path that
// does not exist yet, the deepest existing ancestor is resolved and the rest
// re-attached, so a link such as out/link -> /etc cannot be used to escape.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	for dir := abs; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest), nil
		}
		if filepath.Dir(dir) == dir {
			return abs, nil
		}
	}
}

// ValidateWithin checks that path, once cleaned and with symlinks resolved,
// lies inside dir. dir itself must exist.
func ValidateWithin(path, dir string) error {
	target, err := canonical(path)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	root, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is not under %s", ErrPathEscapes, path, dir)
	}
	return nil
}

// ValidateWithinAny accepts path if it lies inside at least one of dirs.
func ValidateWithinAny(path string, dirs []string) error {
	if len(dirs) == 0 {
		return errors.New("no allowed directories specified")
	}
	for _, dir := range dirs {
		if ValidateWithin(path, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be under one of %v", ErrPathEscapes, path, dirs)
}

// ValidateOutputPath accepts files under the working directory or the system
// temp directory.
func ValidateOutputPath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	return ValidateWithinAny(path, []string{cwd, os.TempDir()})
}
