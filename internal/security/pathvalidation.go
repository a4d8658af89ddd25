// Package security guards the paths a conversion writes to, so a batch can
// never overwrite one of its own recordings or write outside its report
// directory.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrOutputIsInput is returned when an output resolves to an input.
	ErrOutputIsInput = errors.New("security: output would overwrite an input recording")
	// ErrDuplicateOutput is returned when two jobs resolve to one output.
	ErrDuplicateOutput = errors.New("security: output is written by more than one job")
	// ErrOutsideDirectory is returned when a path escapes its directory.
	ErrOutsideDirectory = errors.New("security: path escapes its directory")
)

// Canonical returns the absolute, symlink-resolved form of path. When path
// does not exist yet, the deepest existing parent is resolved and the rest
// appended, so a new file below a symlinked directory maps to its real
// location.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("security: resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, err := filepath.Rel(dir, abs)
			if err != nil {
				return "", fmt.Errorf("security: resolve %s: %w", path, err)
			}
			return filepath.Join(resolved, rel), nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return abs, nil
		}
	}
}

// WithinDirectory returns an error wrapping ErrOutsideDirectory when path
// resolves outside dir. dir must exist.
func WithinDirectory(path, dir string) error {
	p, err := Canonical(path)
	if err != nil {
		return err
	}
	d, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("security: resolve directory %s: %w", dir, err)
	}
	if d, err = filepath.Abs(d); err != nil {
		return fmt.Errorf("security: resolve directory %s: %w", dir, err)
	}

	rel, err := filepath.Rel(d, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is not below %s", ErrOutsideDirectory, path, dir)
	}
	return nil
}

// Pair is the input and output of one conversion.
type Pair struct {
	Input  string
	Output string
}

// CheckPairs rejects a batch in which any output resolves to an input, or
// two outputs resolve to the same file.
func CheckPairs(pairs []Pair) error {
	inputs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		c, err := Canonical(p.Input)
		if err != nil {
			return err
		}
		inputs[c] = p.Input
	}

	outputs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		c, err := Canonical(p.Output)
		if err != nil {
			return err
		}
		if in, ok := inputs[c]; ok {
			return fmt.Errorf("%w: %s is %s", ErrOutputIsInput, p.Output, in)
		}
		if prev, ok := outputs[c]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateOutput, prev, p.Output)
		}
		outputs[c] = p.Output
	}
	return nil
}

// maxNameLen bounds names built by SanitizeFilename.
const maxNameLen = 128

// SanitizeFilename turns a recording name into a safe file name stem. Runs
// of characters other than ASCII letters, digits, dot, underscore and dash
// become one underscore; leading and trailing dots and underscores are
// dropped. An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		ok := r < 0x80 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-')
		if !ok {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
