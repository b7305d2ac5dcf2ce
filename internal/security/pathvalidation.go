// Package security guards filesystem paths taken from the command line.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for paths that resolve somewhere the caller
// must not touch.
var ErrUnsafePath = errors.New("unsafe path")

// canonical resolves p to an absolute path with symlinks evaluated. For a
// path that does not exist yet, the deepest existing ancestor is resolved
// and the remainder appended, so a symlinked parent cannot smuggle the
// path elsewhere.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	for check := abs; ; {
		if resolved, err := filepath.EvalSymlinks(check); err == nil {
			rest, _ := filepath.Rel(check, abs)
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(check)
		if parent == check {
			return abs, nil
		}
		check = parent
	}
}

// within reports whether path lies inside dir. strict excludes dir itself.
func within(path, dir string, strict bool) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	if rel == "." {
		return !strict
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// WithinDir reports whether path resolves inside dir, dir itself included.
func WithinDir(path, dir string) (bool, error) {
	p, err := canonical(path)
	if err != nil {
		return false, err
	}
	d, err := canonical(dir)
	if err != nil {
		return false, err
	}
	return within(p, d, false), nil
}

// ValidateOutputDir accepts a directory that may be cleared and recreated.
// It must resolve strictly below the working directory or the temp
// directory, and must not contain the working directory.
func ValidateOutputDir(dir string) error {
	p, err := canonical(dir)
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	cwd, err := canonical(wd)
	if err != nil {
		return err
	}
	if within(cwd, p, false) {
		return fmt.Errorf("%w: %s contains the working directory", ErrUnsafePath, dir)
	}
	for _, root := range []string{cwd, os.TempDir()} {
		r, err := canonical(root)
		if err != nil {
			return err
		}
		if within(p, r, true) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be below the working or temp directory", ErrUnsafePath, dir)
}
