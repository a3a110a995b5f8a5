package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// Destination is the directory content is written under. Arcnames are
	// rebased from Basedir onto Destination.
	Destination string
	// Chown restores the manifest's uid/gid on extracted entries. It is
	// attempted whenever set; failures are ignored, and it normally only
	// succeeds when running as root.
	Chown bool
}

// Extract writes every content entry to opts.Destination, preserving
// directory structure and symlink targets. Each regular file's recorded
// modification time is restored as soon as the file is written; directory
// mtimes are restored last, after all content, per spec.md §4.6's
// requirement that directory mtimes are restored only after their contents
// exist. Symlink mtimes are not restored.
func (a *Archive) Extract(opts ExtractOptions) error {
	r, err := openReader(a.Path)
	if err != nil {
		return err
	}
	defer r.file.Close()

	if err := a.skipReservedPrefix(r); err != nil {
		return err
	}

	for _, fi := range a.Manifest.Entries {
		hdr, err := r.tr.Next()
		if err != nil {
			return &ReadError{Path: a.Path, Reason: fmt.Sprintf("%s: unable to read entry: %v", fi.Path, err)}
		}
		if err := a.extractEntry(r.tr, hdr, fi, opts); err != nil {
			return err
		}
	}

	// Directory mtimes are restored last, in reverse manifest order, so that
	// no subsequent extraction into a directory disturbs its own mtime.
	for i := len(a.Manifest.Entries) - 1; i >= 0; i-- {
		fi := a.Manifest.Entries[i]
		if !fi.IsDir() {
			continue
		}
		dest := a.destPath(opts.Destination, fi.Path)
		mt := time.Unix(fi.MTimeSeconds(), 0)
		if err := os.Chtimes(dest, mt, mt); err != nil {
			return fmt.Errorf("%s: unable to restore mtime: %w", fi.Path, err)
		}
	}
	return nil
}

// destPath maps a manifest path onto its extraction location: destination
// joined with the entry's full tar member name, so the archive's basedir
// itself appears as a directory under destination (matching what a plain
// "tar xf" extraction into destination would produce).
func (a *Archive) destPath(destination, manifestPath string) string {
	return filepath.Join(destination, filepath.FromSlash(arcname(a.Basedir, manifestPath)))
}

func (a *Archive) extractEntry(r io.Reader, hdr *tar.Header, fi *fileinfo.FileInfo, opts ExtractOptions) error {
	dest := a.destPath(opts.Destination, fi.Path)

	switch {
	case fi.IsDir():
		if err := os.MkdirAll(dest, fi.Mode.Perm()|0700); err != nil {
			return fmt.Errorf("%s: unable to create directory: %w", fi.Path, err)
		}
	case fi.IsSymlink():
		if err := os.Symlink(fi.Target, dest); err != nil {
			return fmt.Errorf("%s: unable to create symlink: %w", fi.Path, err)
		}
	case hdr.Typeflag == tar.TypeLink:
		original := filepath.Join(opts.Destination, filepath.FromSlash(hdr.Linkname))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("%s: unable to create parent directory: %w", fi.Path, err)
		}
		if err := linkOrCopy(original, dest); err != nil {
			return fmt.Errorf("%s: unable to recreate deduplicated file: %w", fi.Path, err)
		}
	default:
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("%s: unable to create parent directory: %w", fi.Path, err)
		}
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode.Perm())
		if err != nil {
			return fmt.Errorf("%s: unable to create file: %w", fi.Path, err)
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return fmt.Errorf("%s: unable to write file content: %w", fi.Path, err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("%s: unable to finalize file: %w", fi.Path, err)
		}
	}

	if opts.Chown {
		chownEntry(dest, fi)
	}
	if fi.IsFile() {
		mt := time.Unix(fi.MTimeSeconds(), 0)
		os.Chtimes(dest, mt, mt)
	}
	return nil
}

// linkOrCopy hard-links dest to original, falling back to a byte copy if the
// two paths don't share a filesystem.
func linkOrCopy(original, dest string) error {
	if err := os.Link(original, dest); err == nil {
		return nil
	}
	src, err := os.Open(original)
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}
