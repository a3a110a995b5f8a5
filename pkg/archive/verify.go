package archive

import (
	"archive/tar"
	"fmt"
	"hash"
	"io"
	"path"

	"github.com/archivetools/archivetools/pkg/checksum"
	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// Verify re-reads the archive from its start and checks every entry against
// the manifest: tar order must match manifest order exactly; mode, floored
// mtime, and type must match for every entry; for files, size (when not a
// hard-link entry) and every algorithm in the manifest's checksum set must
// match; for symlinks, linkname must equal target. It fails fast on the
// first mismatch, per spec.md §4.6.
func (a *Archive) Verify() error {
	r, err := openReader(a.Path)
	if err != nil {
		return err
	}
	defer r.file.Close()

	if err := a.skipReservedPrefix(r); err != nil {
		return err
	}

	algorithms := a.Manifest.Header.Checksums

	for _, fi := range a.Manifest.Entries {
		hdr, err := r.tr.Next()
		if err != nil {
			return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("expected entry, got: %v", err)}
		}
		wantName := arcname(a.Basedir, fi.Path)
		if fi.IsDir() {
			wantName += "/"
		}
		if hdr.Name != wantName {
			return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("tar order mismatch: expected %s, found %s", wantName, hdr.Name)}
		}
		if err := verifyEntry(r.tr, hdr, fi, algorithms); err != nil {
			return err
		}
	}

	if hdr, err := r.tr.Next(); err != io.EOF {
		name := ""
		if hdr != nil {
			name = hdr.Name
		}
		return &IntegrityError{Item: name, Reason: "archive contains entries beyond the manifest"}
	}
	return nil
}

// skipReservedPrefix advances r past the manifest and any registered
// metadata entries, validating that each matches the header's declared
// Metadata list in order.
func (a *Archive) skipReservedPrefix(r *reader) error {
	for _, name := range a.Manifest.Header.Metadata {
		hdr, err := r.tr.Next()
		if err != nil {
			return &IntegrityError{Item: name, Reason: fmt.Sprintf("unable to read metadata entry: %v", err)}
		}
		want := path.Join(a.Basedir, name)
		if hdr.Name != want {
			return &IntegrityError{Item: name, Reason: fmt.Sprintf("expected metadata entry %s, found %s", want, hdr.Name)}
		}
		if _, err := io.Copy(io.Discard, r.tr); err != nil {
			return &IntegrityError{Item: name, Reason: err.Error()}
		}
	}
	return nil
}

// wantTypeflag maps fi's type to the tar type byte Create would have
// written for it, mirroring writeContentEntry/writeLinkEntry's switch.
func wantTypeflag(fi *fileinfo.FileInfo, hdr *tar.Header) byte {
	switch {
	case fi.IsDir():
		return tar.TypeDir
	case fi.IsSymlink():
		return tar.TypeSymlink
	case hdr.Typeflag == tar.TypeLink:
		// A deduplicated entry is legitimately written as a hard link
		// rather than a regular file.
		return tar.TypeLink
	default:
		return tar.TypeReg
	}
}

// verifyEntry checks one tar entry's header (and, for files, its body)
// against fi: mode, floored mtime, and type for every entry; size and every
// listed checksum algorithm for regular files; linkname for symlinks.
func verifyEntry(tr *tar.Reader, hdr *tar.Header, fi *fileinfo.FileInfo, algorithms []string) error {
	if want := wantTypeflag(fi, hdr); hdr.Typeflag != want {
		return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("type mismatch: manifest declares %s, archive has typeflag %q", fi.Type.String(), string(hdr.Typeflag))}
	}
	if hdr.Mode&0o7777 != int64(fi.Mode.Perm()) {
		return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("mode mismatch: manifest declares %o, archive declares %o", fi.Mode.Perm(), hdr.Mode&0o7777)}
	}
	if hdr.ModTime.Unix() != fi.MTimeSeconds() {
		return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("mtime mismatch: manifest declares %d, archive declares %d", fi.MTimeSeconds(), hdr.ModTime.Unix())}
	}

	if fi.IsSymlink() {
		if hdr.Linkname != fi.Target {
			return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("symlink target mismatch: manifest declares %s, archive declares %s", fi.Target, hdr.Linkname)}
		}
		return nil
	}
	if !fi.IsFile() {
		return nil
	}
	if hdr.Typeflag == tar.TypeLink {
		// A deduplicated entry carries no body of its own; its content was
		// already verified when its first occurrence was read.
		return nil
	}
	if hdr.Size != fi.Size {
		return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("size mismatch: manifest declares %d, archive declares %d", fi.Size, hdr.Size)}
	}

	sums, err := fi.Checksum()
	if err != nil {
		return &IntegrityError{Item: fi.Path, Reason: err.Error()}
	}

	hashes := make(map[string]hash.Hash, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	for _, algorithm := range algorithms {
		if _, ok := sums[algorithm]; !ok {
			return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("manifest records no %s checksum", algorithm)}
		}
		h, err := checksum.NewHash(algorithm)
		if err != nil {
			return &IntegrityError{Item: fi.Path, Reason: err.Error()}
		}
		hashes[algorithm] = h
		writers = append(writers, h)
	}

	n, err := io.Copy(io.MultiWriter(writers...), tr)
	if err != nil {
		return &IntegrityError{Item: fi.Path, Reason: err.Error()}
	}
	if n != fi.Size {
		return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("size mismatch: manifest declares %d, read %d", fi.Size, n)}
	}
	for _, algorithm := range algorithms {
		h, ok := hashes[algorithm]
		if !ok {
			continue
		}
		if got, want := fmt.Sprintf("%x", h.Sum(nil)), sums[algorithm]; got != want {
			return &IntegrityError{Item: fi.Path, Reason: fmt.Sprintf("%s checksum mismatch: manifest %s, archive %s", algorithm, want, got)}
		}
	}
	return nil
}
