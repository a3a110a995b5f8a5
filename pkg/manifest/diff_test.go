package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

func fileEntry(t *testing.T, path string, size int64, sha256 string, mtime float64) *fileinfo.FileInfo {
	t.Helper()
	fi, err := fileinfo.FromRecord(fileinfo.Record{
		Type:     "f",
		Path:     path,
		Size:     size,
		Checksum: map[string]string{"sha256": sha256},
		MTime:    mtime,
		Mode:     0644,
	})
	require.NoError(t, err)
	return fi
}

func manifestOf(entries ...*fileinfo.FileInfo) *Manifest {
	return &Manifest{Header: Header{Checksums: []string{"sha256"}}, Entries: entries}
}

func TestDiffMatch(t *testing.T) {
	a := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 100))
	b := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 100))

	entries, err := Diff(a, b)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, Match, entries[0].Status)
}

func TestDiffContentOnSizeChange(t *testing.T) {
	a := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 100))
	b := manifestOf(fileEntry(t, "a.txt", 2, "deadbeef", 100))

	entries, err := Diff(a, b)
	require.NoError(t, err)
	require.Equal(t, Content, entries[0].Status)
}

func TestDiffContentOnChecksumChange(t *testing.T) {
	a := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 100))
	b := manifestOf(fileEntry(t, "a.txt", 1, "beefdead", 100))

	entries, err := Diff(a, b)
	require.NoError(t, err)
	require.Equal(t, Content, entries[0].Status)
}

func TestDiffMetaOnMTimeChange(t *testing.T) {
	a := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 100))
	b := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 200))

	entries, err := Diff(a, b)
	require.NoError(t, err)
	require.Equal(t, Meta, entries[0].Status)
}

func TestDiffIgnoresSubSecondMTimeNoise(t *testing.T) {
	a := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 100.1))
	b := manifestOf(fileEntry(t, "a.txt", 1, "deadbeef", 100.9))

	entries, err := Diff(a, b)
	require.NoError(t, err)
	require.Equal(t, Match, entries[0].Status)
}

func TestDiffMissingEntries(t *testing.T) {
	a := manifestOf(fileEntry(t, "only-a.txt", 1, "deadbeef", 100))
	b := manifestOf(fileEntry(t, "only-b.txt", 1, "deadbeef", 100))

	entries, err := Diff(a, b)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, MissingB, entries[0].Status)
	require.Equal(t, MissingA, entries[1].Status)
}

func TestDiffNoCommonChecksumAlgorithm(t *testing.T) {
	a := &Manifest{Header: Header{Checksums: []string{"sha256"}}, Entries: []*fileinfo.FileInfo{fileEntry(t, "a.txt", 1, "deadbeef", 100)}}
	b := &Manifest{Header: Header{Checksums: []string{"sha512"}}, Entries: []*fileinfo.FileInfo{fileEntry(t, "a.txt", 1, "deadbeef", 100)}}

	_, err := Diff(a, b)
	require.Error(t, err)
	var noCommon *NoCommonChecksumError
	require.ErrorAs(t, err, &noCommon)
}
