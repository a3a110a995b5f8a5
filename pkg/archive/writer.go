package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/archivetools/archivetools/pkg/compress"
	"github.com/archivetools/archivetools/pkg/fileinfo"
	"github.com/archivetools/archivetools/pkg/manifest"
)

// CreateOptions configures Create.
type CreateOptions struct {
	Roots      []string
	Excludes   []string
	Basedir    string // optional explicit basedir; empty derives automatically
	Algorithms []string
	Generator  string
	Dedup      DedupPolicy
	Tags       []string
	Extra      []MetadataItem

	// Workdir, if non-empty, is chdir'd into for the duration of Create. See
	// withWorkdir's doc comment for why this is scoped this tightly.
	Workdir string
}

// Create builds a new archive at path from source, per the rules in
// spec.md §4.5: one exclusive-create output file, a reserved metadata
// prefix (manifest first, then any CreateOptions.Extra items in
// registration order), then content entries in manifest order.
//
// On any error the partially written file at path is left in place; callers
// running interactively are expected to remove it themselves.
func Create(archivePath string, source fileinfo.Source, opts CreateOptions) error {
	return withWorkdir(opts.Workdir, func() error {
		return create(archivePath, source, opts, func(algorithms, metadataNames []string, generator string) (*manifest.Manifest, error) {
			return manifest.NewFromSource(source, opts.Roots, opts.Excludes, algorithms, metadataNames, generator)
		})
	})
}

// CreateFromEntries builds a new archive at path from an already-assembled
// set of FileInfo entries rather than a fresh enumeration, per spec.md
// §4.9's differential backup step: the backup driver diffs a manifest
// against one or more base archives and writes only the surviving entries.
// opts.Roots is still used for basedir derivation and path validation
// (entries are assumed to have been enumerated from those same roots);
// opts.Excludes is not reapplied since entries have already been filtered.
func CreateFromEntries(archivePath string, source fileinfo.Source, entries []*fileinfo.FileInfo, opts CreateOptions) error {
	return withWorkdir(opts.Workdir, func() error {
		return create(archivePath, source, opts, func(algorithms, metadataNames []string, generator string) (*manifest.Manifest, error) {
			return manifest.NewFromFileInfos(entries, algorithms, metadataNames, generator)
		})
	})
}

func create(archivePath string, source fileinfo.Source, opts CreateOptions, buildManifest func(algorithms, metadataNames []string, generator string) (*manifest.Manifest, error)) error {
	basedir, err := deriveBasedir(opts.Basedir, opts.Roots, archivePath)
	if err != nil {
		return err
	}
	if _, err := validateRoots(opts.Roots, opts.Excludes, basedir); err != nil {
		return err
	}

	metadataNames := make([]string, 0, 1+len(opts.Extra))
	metadataNames = append(metadataNames, ManifestName)
	seen := map[string]bool{ManifestName: true}
	for _, item := range opts.Extra {
		if seen[item.Name] {
			return &CreateError{Reason: fmt.Sprintf("duplicate metadata name %s", item.Name)}
		}
		seen[item.Name] = true
		metadataNames = append(metadataNames, item.Name)
	}

	generator := opts.Generator
	if generator == "" {
		generator = manifest.DefaultGenerator
	}
	m, err := buildManifest(opts.Algorithms, metadataNames, generator)
	if err != nil {
		return err
	}
	m.Header.Tags = opts.Tags

	reserved := make(map[string]bool, len(metadataNames))
	for _, name := range metadataNames {
		reserved[metadataArcname(basedir, name)] = true
	}
	for _, fi := range m.Entries {
		if reserved[arcname(basedir, fi.Path)] {
			return &CreateError{Reason: fmt.Sprintf("%s: filename is reserved for metadata", fi.Path)}
		}
	}

	manifestBytes, err := marshalManifest(m)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(archivePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%s: unable to exclusively create archive: %w", archivePath, err)
	}
	defer out.Close()

	codec := compress.CodecForName(archivePath)
	compressor, err := compress.NewWriter(codec, out)
	if err != nil {
		return fmt.Errorf("%s: %w", archivePath, err)
	}
	defer compressor.Close()

	tw := tar.NewWriter(compressor)
	defer tw.Close()

	if err := writeMetadataBytes(tw, metadataArcname(basedir, ManifestName), manifestBytes, 0444); err != nil {
		return err
	}
	for _, item := range opts.Extra {
		if err := writeMetadataItem(tw, metadataArcname(basedir, item.Name), item); err != nil {
			return err
		}
	}

	canonical := ""
	if len(opts.Algorithms) > 0 {
		canonical = opts.Algorithms[0]
	}
	idx := newLinkIndex()
	for _, fi := range m.Entries {
		if err := writeContentEntry(tw, source, basedir, fi, opts.Dedup, canonical, idx); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("%s: unable to finalize tar stream: %w", archivePath, err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("%s: unable to finalize compressed stream: %w", archivePath, err)
	}
	return out.Close()
}

func marshalManifest(m *manifest.Manifest) ([]byte, error) {
	tmp, err := os.CreateTemp("", "archivetools-manifest-*")
	if err != nil {
		return nil, fmt.Errorf("unable to create manifest scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := m.Write(tmp); err != nil {
		return nil, fmt.Errorf("unable to serialize manifest: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("unable to rewind manifest scratch file: %w", err)
	}
	return io.ReadAll(tmp)
}

func writeMetadataBytes(tw *tar.Writer, name string, data []byte, mode int64) error {
	hdr := &tar.Header{
		Format:   tar.FormatPAX,
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     mode,
		Size:     int64(len(data)),
		ModTime:  time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("%s: unable to write metadata header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("%s: unable to write metadata body: %w", name, err)
	}
	return nil
}

func writeMetadataItem(tw *tar.Writer, name string, item MetadataItem) error {
	r, err := item.Open()
	if err != nil {
		return fmt.Errorf("%s: unable to open metadata source: %w", name, err)
	}
	defer r.Close()

	hdr := &tar.Header{
		Format:   tar.FormatPAX,
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     int64(item.Mode),
		Size:     r.Size(),
		ModTime:  time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("%s: unable to write metadata header: %w", name, err)
	}
	if _, err := io.Copy(tw, r); err != nil {
		return fmt.Errorf("%s: unable to write metadata body: %w", name, err)
	}
	return nil
}

func writeContentEntry(tw *tar.Writer, source fileinfo.Source, basedir string, fi *fileinfo.FileInfo, dedup DedupPolicy, canonical string, idx *linkIndex) error {
	name := arcname(basedir, fi.Path)

	if fi.IsFile() && dedup != DedupNever {
		key, linkable := dedupKey(fi, dedup, canonical)
		if linkable {
			if original, dup := idx.arcnameFor(key, name); dup {
				return writeLinkEntry(tw, name, original, fi)
			}
		}
	}

	hdr := &tar.Header{
		Format:  tar.FormatPAX,
		Name:    name,
		Mode:    int64(fi.Mode.Perm()),
		Uid:     fi.UID,
		Gid:     fi.GID,
		Uname:   fi.UName,
		Gname:   fi.GName,
		ModTime: time.Unix(fi.MTimeSeconds(), 0),
	}

	switch {
	case fi.IsDir():
		hdr.Typeflag = tar.TypeDir
		hdr.Name = name + "/"
	case fi.IsSymlink():
		hdr.Typeflag = tar.TypeSymlink
		hdr.Linkname = fi.Target
	default:
		hdr.Typeflag = tar.TypeReg
		hdr.Size = fi.Size
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("%s: unable to write header: %w", fi.Path, err)
	}
	if fi.IsFile() {
		r, err := source.Open(fi)
		if err != nil {
			return fmt.Errorf("%s: unable to open content: %w", fi.Path, err)
		}
		defer r.Close()
		if _, err := io.Copy(tw, r); err != nil {
			return fmt.Errorf("%s: unable to write content: %w", fi.Path, err)
		}
	}
	return nil
}

func writeLinkEntry(tw *tar.Writer, name, linkname string, fi *fileinfo.FileInfo) error {
	hdr := &tar.Header{
		Format:   tar.FormatPAX,
		Typeflag: tar.TypeLink,
		Name:     name,
		Linkname: linkname,
		Mode:     int64(fi.Mode.Perm()),
		Uid:      fi.UID,
		Gid:      fi.GID,
		Uname:    fi.UName,
		Gname:    fi.GName,
		ModTime:  time.Unix(fi.MTimeSeconds(), 0),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("%s: unable to write hardlink header: %w", fi.Path, err)
	}
	return nil
}

// dedupKey derives the identity key used to detect duplicate content for fi,
// per the active policy. ok is false when the policy cannot determine an
// identity for fi (no local filesystem path under DedupLink, or no checksum
// under DedupContent), in which case fi is always written in full.
func dedupKey(fi *fileinfo.FileInfo, dedup DedupPolicy, canonical string) (string, bool) {
	switch dedup {
	case DedupLink:
		if fi.FSPath() == "" {
			return "", false
		}
		info, err := os.Lstat(fi.FSPath())
		if err != nil {
			return "", false
		}
		dev, ino, nlink, ok := statIdentity(info)
		if !ok || nlink <= 1 {
			return "", false
		}
		return fmt.Sprintf("%d:%d", dev, ino), true
	case DedupContent:
		if canonical == "" {
			return "", false
		}
		sums, err := fi.Checksum()
		if err != nil {
			return "", false
		}
		sum, ok := sums[canonical]
		if !ok {
			return "", false
		}
		return "content:" + sum, true
	default:
		return "", false
	}
}
