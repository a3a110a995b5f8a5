// Package archive implements the tar-based archive container: a reserved
// metadata prefix (the manifest plus any registered companions) followed by
// content entries in manifest order, with optional hard-link deduplication.
package archive

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/archivetools/archivetools/pkg/manifest"
	"github.com/archivetools/archivetools/pkg/pathutil"
)

// ManifestName is the reserved base name for the embedded manifest, always
// the first metadata entry.
const ManifestName = ".manifest.yaml"

// CreateError is raised for every problem spec.md attributes to archive
// construction: empty input, mixed absolute/relative paths, a non-relative
// basedir, a non-normalized path, a reserved filename collision, duplicate
// metadata, or a content entry missing a required checksum.
type CreateError struct {
	Reason string
}

func (e *CreateError) Error() string { return fmt.Sprintf("archive create error: %s", e.Reason) }

// ReadError is raised when an archive cannot be opened or parsed.
type ReadError struct {
	Path   string
	Reason string
}

func (e *ReadError) Error() string { return fmt.Sprintf("%s: %s", e.Path, e.Reason) }

// IntegrityError is raised when verify detects a mismatch between an
// archive's contents and its embedded manifest.
type IntegrityError struct {
	Item   string
	Reason string
}

func (e *IntegrityError) Error() string { return fmt.Sprintf("%s: %s", e.Item, e.Reason) }

// Archive is an open tar container paired with its parsed manifest.
type Archive struct {
	Path     string
	Basedir  string
	Manifest *manifest.Manifest
}

// MetadataItem is a caller-registered metadata entry written immediately
// after the manifest, before any content entry.
type MetadataItem struct {
	Name string
	Mode uint32
	Open func() (ReadSizer, error)
}

// ReadSizer is a byte source whose total length is known up front, as
// required to write a tar header before streaming its body.
type ReadSizer interface {
	Read(p []byte) (int, error)
	Close() error
	Size() int64
}

// deriveBasedir implements spec.md §4.5's basedir rules. explicitBasedir may
// be empty to request automatic derivation from roots[0] and archivePath.
func deriveBasedir(explicitBasedir string, roots []string, archivePath string) (string, error) {
	if explicitBasedir != "" {
		if filepath.IsAbs(explicitBasedir) {
			return "", &CreateError{Reason: "basedir must be relative"}
		}
		return filepath.ToSlash(explicitBasedir), nil
	}
	if len(roots) == 0 {
		return "", &CreateError{Reason: "refusing to create an empty archive"}
	}
	first := roots[0]
	if filepath.IsAbs(first) {
		base := filepath.Base(archivePath)
		stem := strings.SplitN(base, ".", 2)[0]
		return stem, nil
	}
	parts := strings.Split(filepath.ToSlash(first), "/")
	return parts[0], nil
}

// validateRoots checks the normalization, absolute/relative consistency, and
// basedir-containment rules from spec.md §4.5, returning whether all paths
// are absolute.
func validateRoots(roots []string, excludes []string, basedir string) (bool, error) {
	if len(roots) == 0 {
		return false, &CreateError{Reason: "refusing to create an empty archive"}
	}

	var haveAbsolute *bool
	for _, p := range append(append([]string{}, roots...), excludes...) {
		if !pathutil.IsNormalized(p) {
			return false, &CreateError{Reason: fmt.Sprintf("invalid path %s: must be normalized", p)}
		}
		abs := filepath.IsAbs(p)
		if haveAbsolute == nil {
			haveAbsolute = &abs
		} else if *haveAbsolute != abs {
			return false, &CreateError{Reason: "mixing of absolute and relative paths is not allowed"}
		}
		if !abs {
			rel := filepath.ToSlash(p)
			if rel != basedir && !strings.HasPrefix(rel, basedir+"/") {
				return false, &CreateError{Reason: fmt.Sprintf("%s: not relative to basedir %s", p, basedir)}
			}
		}
	}
	return *haveAbsolute, nil
}

// arcname computes the tar member name for a manifest path, given the
// archive's basedir: absolute paths are rooted under basedir after
// stripping their volume/root prefix; relative paths are used as-is (they
// already begin with basedir, per validateRoots).
func arcname(basedir, manifestPath string) string {
	if path.IsAbs(manifestPath) {
		return path.Join(basedir, strings.TrimPrefix(manifestPath, "/"))
	}
	return manifestPath
}

// metadataArcname computes the reserved tar member name for a metadata item.
func metadataArcname(basedir, name string) string {
	return path.Join(basedir, name)
}
