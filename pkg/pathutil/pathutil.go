// Package pathutil provides path normalization and filesystem type
// classification shared by the manifest, archive, and backup packages.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsNormalized reports whether resolving path (following only a symlink at
// the final path component, if any) would yield the same path. This forbids
// ".", ".." components and non-clean separators anywhere in the path, while
// still allowing the path itself to name a symlink.
//
// Unlike a full filepath.EvalSymlinks, this does not require the path to
// exist: nonexistent components are treated as ordinary (non-symlink)
// components, matching the intent of catching denormalized input before any
// filesystem access is attempted.
func IsNormalized(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	if filepath.ToSlash(filepath.Clean(path)) != filepath.ToSlash(path) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			return false
		}
	}

	vol := filepath.VolumeName(abs)
	rest := strings.TrimPrefix(abs[len(vol):], string(filepath.Separator))
	if rest == "" {
		return true
	}
	components := strings.Split(rest, string(filepath.Separator))

	current := vol + string(filepath.Separator)
	for i, component := range components {
		current = filepath.Join(current, component)
		isFinal := i == len(components)-1

		info, err := os.Lstat(current)
		if err != nil {
			// Nonexistent components can't be denormalizing symlinks.
			continue
		}
		if !isFinal && info.Mode()&os.ModeSymlink != 0 {
			return false
		}
	}
	return true
}

// Type is the classification of a filesystem entity as understood by a
// manifest entry.
type Type byte

const (
	// TypeDirectory identifies a directory.
	TypeDirectory Type = 'd'
	// TypeFile identifies a regular file.
	TypeFile Type = 'f'
	// TypeSymlink identifies a symbolic link.
	TypeSymlink Type = 'l'
)

// String returns the single-character code for the type.
func (t Type) String() string {
	return string(rune(t))
}

// InvalidTypeError is raised when a filesystem entity is neither a
// directory, regular file, nor symbolic link (FIFO, socket, device).
type InvalidTypeError struct {
	Path string
	Mode os.FileMode
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("%s: invalid file type (%s)", e.Path, describeMode(e.Mode))
}

func describeMode(mode os.FileMode) string {
	switch {
	case mode&os.ModeNamedPipe != 0:
		return "FIFO"
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice != 0:
		return "character device file"
	case mode&os.ModeDevice != 0:
		return "block device file"
	case mode&os.ModeSocket != 0:
		return "socket"
	default:
		return fmt.Sprintf("unsupported mode %s", mode)
	}
}

// ClassifyMode maps a stat mode to its manifest Type. It returns
// *InvalidTypeError for anything other than a directory, regular file, or
// symbolic link; the caller decides whether to warn-and-skip.
func ClassifyMode(path string, mode os.FileMode) (Type, error) {
	switch {
	case mode.IsDir():
		return TypeDirectory, nil
	case mode.IsRegular():
		return TypeFile, nil
	case mode&os.ModeSymlink != 0:
		return TypeSymlink, nil
	default:
		return 0, &InvalidTypeError{Path: path, Mode: mode}
	}
}
