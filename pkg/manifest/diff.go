package manifest

import (
	"errors"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// DiffStatus classifies how one manifest entry compares to its counterpart
// (or lack thereof) in another manifest.
type DiffStatus int

const (
	// Match indicates the two entries are equivalent in every field diff
	// cares about.
	Match DiffStatus = iota
	// Meta indicates the entries differ only in metadata (owner, mode,
	// mtime) but agree on type and content.
	Meta
	// Content indicates two file entries differ in size or canonical
	// checksum.
	Content
	// SymlinkTarget indicates two symlink entries point at different
	// targets.
	SymlinkTarget
	// Type indicates the entries' filesystem types differ.
	Type
	// MissingA indicates the path exists only in manifest B.
	MissingA
	// MissingB indicates the path exists only in manifest A.
	MissingB
)

// String renders the status using the tag names spec.md uses.
func (s DiffStatus) String() string {
	switch s {
	case Match:
		return "MATCH"
	case Meta:
		return "META"
	case Content:
		return "CONTENT"
	case SymlinkTarget:
		return "SYMLNK_TARGET"
	case Type:
		return "TYPE"
	case MissingA:
		return "MISSING_A"
	case MissingB:
		return "MISSING_B"
	default:
		return "UNKNOWN"
	}
}

// Entry pairs a DiffStatus with the (possibly nil) entries it was computed
// from. A is nil when Status is MissingA; B is nil when Status is MissingB.
type Entry struct {
	Status DiffStatus
	A, B   *fileinfo.FileInfo
}

// NoCommonChecksumError is returned when two manifests share no checksum
// algorithm in their headers, so CONTENT differences cannot be detected.
type NoCommonChecksumError struct{}

func (e *NoCommonChecksumError) Error() string {
	return "manifests share no common checksum algorithm"
}

// canonicalAlgorithm returns the first checksum algorithm common to both
// headers' Checksums lists, checked in A's declared order.
func canonicalAlgorithm(a, b *Manifest) (string, error) {
	bset := make(map[string]struct{}, len(b.Header.Checksums))
	for _, alg := range b.Header.Checksums {
		bset[alg] = struct{}{}
	}
	for _, alg := range a.Header.Checksums {
		if _, ok := bset[alg]; ok {
			return alg, nil
		}
	}
	return "", &NoCommonChecksumError{}
}

// Diff performs an ordered two-way merge over two sorted manifests, yielding
// one Entry per distinct path across both. Both manifests are assumed
// already sorted ascending by path (NewFromSource/NewFromFileInfos/
// NewFromReader all satisfy this for freshly built manifests, but a caller
// that mutated Entries directly is responsible for re-sorting first).
func Diff(a, b *Manifest) ([]Entry, error) {
	canonical, err := canonicalAlgorithm(a, b)
	if err != nil {
		return nil, err
	}

	var result []Entry
	i, j := 0, 0
	for i < len(a.Entries) || j < len(b.Entries) {
		switch {
		case i >= len(a.Entries):
			result = append(result, Entry{Status: MissingA, B: b.Entries[j]})
			j++
		case j >= len(b.Entries):
			result = append(result, Entry{Status: MissingB, A: a.Entries[i]})
			i++
		default:
			fa, fb := a.Entries[i], b.Entries[j]
			switch {
			case fa.Path < fb.Path:
				result = append(result, Entry{Status: MissingB, A: fa})
				i++
			case fa.Path > fb.Path:
				result = append(result, Entry{Status: MissingA, B: fb})
				j++
			default:
				status, err := compare(fa, fb, canonical)
				if err != nil {
					return nil, err
				}
				result = append(result, Entry{Status: status, A: fa, B: fb})
				i++
				j++
			}
		}
	}
	return result, nil
}

// compare implements the match-rule precedence from spec.md §4.4 for two
// entries that share a path.
func compare(a, b *fileinfo.FileInfo, canonical string) (DiffStatus, error) {
	if a.Type != b.Type {
		return Type, nil
	}
	if a.IsSymlink() {
		if a.Target != b.Target {
			return SymlinkTarget, nil
		}
	}
	if a.IsFile() {
		if a.Size != b.Size {
			return Content, nil
		}
		aSums, err := a.Checksum()
		if err != nil {
			return 0, err
		}
		bSums, err := b.Checksum()
		if err != nil {
			return 0, err
		}
		aSum, aOK := aSums[canonical]
		bSum, bOK := bSums[canonical]
		if !aOK || !bOK {
			return 0, errors.New("entry missing canonical checksum required for diff")
		}
		if aSum != bSum {
			return Content, nil
		}
	}
	if a.UID != b.UID || a.UName != b.UName ||
		a.GID != b.GID || a.GName != b.GName ||
		a.Mode != b.Mode || a.MTimeSeconds() != b.MTimeSeconds() {
		return Meta, nil
	}
	return Match, nil
}
