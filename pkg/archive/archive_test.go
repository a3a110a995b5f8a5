package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// writeTestTree creates a small tree under work/data, returning the relative
// root ("data") that Create's tests enumerate. Tests run with
// CreateOptions.Workdir set to work, so relative roots resolve there.
func writeTestTree(t *testing.T, work string) string {
	t.Helper()
	root := filepath.Join(work, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bravo"), 0644))
	return "data"
}

func TestCreateOpenVerifyRoundTrip(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)

	archivePath := filepath.Join(work, "backup.tar")
	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}

	err := Create(archivePath, source, CreateOptions{
		Roots:      []string{root},
		Algorithms: []string{"sha256"},
		Workdir:    work,
	})
	require.NoError(t, err)

	a, err := Open(archivePath)
	require.NoError(t, err)
	require.Equal(t, "data", a.Basedir)
	require.Greater(t, a.Manifest.Len(), 0)

	require.NoError(t, a.Verify())
}

func TestCreateRefusesEmptyRootList(t *testing.T) {
	work := t.TempDir()
	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	err := Create(filepath.Join(work, "backup.tar"), source, CreateOptions{Basedir: "data"})
	require.Error(t, err)
	var createErr *CreateError
	require.ErrorAs(t, err, &createErr)
}

func TestCreateRefusesMixedAbsoluteAndRelativePaths(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)

	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	err := Create(filepath.Join(work, "backup.tar"), source, CreateOptions{
		Roots:   []string{root, filepath.Join(work, "data")},
		Workdir: work,
	})
	require.Error(t, err)
	var createErr *CreateError
	require.ErrorAs(t, err, &createErr)
}

func TestCreateRefusesNonNormalizedPath(t *testing.T) {
	work := t.TempDir()
	writeTestTree(t, work)

	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	err := Create(filepath.Join(work, "backup.tar"), source, CreateOptions{
		Roots:   []string{"data/../data"},
		Workdir: work,
	})
	require.Error(t, err)
}

func TestCreateRefusesExplicitAbsoluteBasedir(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)

	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	err := Create(filepath.Join(work, "backup.tar"), source, CreateOptions{
		Roots:   []string{root},
		Basedir: "/etc",
		Workdir: work,
	})
	require.Error(t, err)
}

func TestCreateRefusesRelativeRootOutsideBasedir(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)
	require.NoError(t, os.MkdirAll(filepath.Join(work, "other"), 0755))

	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	err := Create(filepath.Join(work, "backup.tar"), source, CreateOptions{
		Roots:   []string{root, "other"},
		Workdir: work,
	})
	require.Error(t, err)
}

func TestCreateDoesNotOverwriteExistingFile(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)

	archivePath := filepath.Join(work, "backup.tar")
	require.NoError(t, os.WriteFile(archivePath, []byte("existing"), 0644))

	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	err := Create(archivePath, source, CreateOptions{Roots: []string{root}, Workdir: work})
	require.Error(t, err)
}

func TestExtractReproducesTree(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)

	archivePath := filepath.Join(work, "backup.tar")
	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	require.NoError(t, Create(archivePath, source, CreateOptions{
		Roots:      []string{root},
		Algorithms: []string{"sha256"},
		Workdir:    work,
	}))

	a, err := Open(archivePath)
	require.NoError(t, err)

	dest := filepath.Join(work, "restored")
	require.NoError(t, a.Extract(ExtractOptions{Destination: dest}))

	got, err := os.ReadFile(filepath.Join(dest, "data", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "alpha", string(got))

	got, err = os.ReadFile(filepath.Join(dest, "data", "sub", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "bravo", string(got))
}

func TestVerifyDetectsTamperedContent(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)

	archivePath := filepath.Join(work, "backup.tar")
	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	require.NoError(t, Create(archivePath, source, CreateOptions{
		Roots:      []string{root},
		Algorithms: []string{"sha256"},
		Workdir:    work,
	}))

	raw, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	tampered := bytesReplace(raw, "alpha", "ALPHA")
	require.NoError(t, os.WriteFile(archivePath, tampered, 0644))

	a, err := Open(archivePath)
	require.NoError(t, err)
	err = a.Verify()
	require.Error(t, err)
	var integrityErr *IntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func bytesReplace(data []byte, from, to string) []byte {
	s := string(data)
	for i := 0; i+len(from) <= len(s); i++ {
		if s[i:i+len(from)] == from {
			return []byte(s[:i] + to + s[i+len(from):])
		}
	}
	return data
}

func TestCreateDedupLinkEmitsHardlinkForSameInode(t *testing.T) {
	work := t.TempDir()
	root := writeTestTree(t, work)
	require.NoError(t, os.Link(filepath.Join(work, "data", "a.txt"), filepath.Join(work, "data", "c.txt")))

	archivePath := filepath.Join(work, "backup.tar")
	source := &fileinfo.LocalSource{Algorithms: []string{"sha256"}}
	require.NoError(t, Create(archivePath, source, CreateOptions{
		Roots:      []string{root},
		Algorithms: []string{"sha256"},
		Workdir:    work,
		Dedup:      DedupLink,
	}))

	a, err := Open(archivePath)
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	dest := filepath.Join(work, "restored")
	require.NoError(t, a.Extract(ExtractOptions{Destination: dest}))
	got, err := os.ReadFile(filepath.Join(dest, "data", "c.txt"))
	require.NoError(t, err)
	require.Equal(t, "alpha", string(got))
}
