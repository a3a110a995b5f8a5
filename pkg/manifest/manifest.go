// Package manifest implements the canonical, hashed, ordered description of
// a directory tree (Manifest) and the two-way ordered diff between two of
// them (DiffStatus / Diff).
package manifest

import (
	"fmt"
	"io"
	"sort"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// DefaultGenerator identifies this implementation in a Header's Generator
// field.
const DefaultGenerator = "archivetools"

// InvalidManifestError is raised when manifest data violates its schema, such
// as a file entry missing a checksum for an algorithm the header declares.
type InvalidManifestError struct {
	Path   string
	Reason string
}

func (e *InvalidManifestError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid manifest: %s", e.Reason)
	}
	return fmt.Sprintf("invalid manifest: %s: %s", e.Path, e.Reason)
}

// Manifest is an ordered sequence of FileInfo records plus a typed header.
type Manifest struct {
	Header  Header
	Entries []*fileinfo.FileInfo
}

// NewFromSource builds a Manifest by enumerating roots (with excludes)
// through source, then sorting the result by path. The header records
// algorithms as its Checksums list; lazily-computed digests use the
// algorithms source itself was configured with, and the two lists are not
// checked against each other.
func NewFromSource(source fileinfo.Source, roots, excludes, algorithms []string, metadata []string, generator string) (*Manifest, error) {
	it := source.Enumerate(roots, excludes)
	var entries []*fileinfo.FileInfo
	advance := fileinfo.Descend
	for {
		fi, err := it.Next(advance)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, fi)
		advance = fileinfo.Descend
	}

	m := &Manifest{
		Header:  NewHeader(algorithms, metadata, generator),
		Entries: entries,
	}
	m.Sort("", false)
	return m, nil
}

// NewFromFileInfos wraps an externally-produced slice of FileInfo values,
// such as the filtered output of Diff chained across several base archives.
// Every file entry must already carry a checksum for each algorithm listed
// in algorithms, or InvalidManifestError is returned.
func NewFromFileInfos(entries []*fileinfo.FileInfo, algorithms []string, metadata []string, generator string) (*Manifest, error) {
	for _, fi := range entries {
		if !fi.IsFile() {
			continue
		}
		sums, err := fi.Checksum()
		if err != nil {
			return nil, err
		}
		for _, alg := range algorithms {
			if _, ok := sums[alg]; !ok {
				return nil, &InvalidManifestError{Path: fi.Path, Reason: fmt.Sprintf("missing %s checksum", alg)}
			}
		}
	}
	m := &Manifest{
		Header:  NewHeader(algorithms, metadata, generator),
		Entries: entries,
	}
	m.Sort("", false)
	return m, nil
}

// Sort reorders Entries. An empty key sorts by path ascending (the default);
// "mtime" and "size" are also recognized. reverse reverses the comparison.
func (m *Manifest) Sort(key string, reverse bool) {
	less := func(i, j int) bool {
		a, b := m.Entries[i], m.Entries[j]
		switch key {
		case "mtime":
			return a.MTime < b.MTime
		case "size":
			return a.Size < b.Size
		default:
			return a.Path < b.Path
		}
	}
	if reverse {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(m.Entries, less)
}

// Find returns the first entry matching path, or nil if none does.
func (m *Manifest) Find(path string) *fileinfo.FileInfo {
	for _, fi := range m.Entries {
		if fi.Path == path {
			return fi
		}
	}
	return nil
}

// AddMetadata appends path to the header's Metadata list, preserving order.
func (m *Manifest) AddMetadata(path string) {
	m.Header.Metadata = append(m.Header.Metadata, path)
}

// Len reports the number of entries.
func (m *Manifest) Len() int { return len(m.Entries) }
