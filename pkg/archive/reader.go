package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/archivetools/archivetools/pkg/compress"
	"github.com/archivetools/archivetools/pkg/manifest"
)

// reader holds the live decode chain backing an open Archive: the file
// handle, its decompressor, and the tar reader pulled from it.
type reader struct {
	file         *os.File
	decompressor io.Reader
	tr           *tar.Reader
}

// Open reads an archive's manifest and returns an Archive describing it. The
// returned Archive does not hold any open file handle; Verify and Extract
// each open archivePath independently for their own pass over its content.
func Open(archivePath string) (*Archive, error) {
	r, err := openReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.file.Close()

	hdr, err := r.tr.Next()
	if err != nil {
		return nil, &ReadError{Path: archivePath, Reason: fmt.Sprintf("unable to read first tar entry: %v", err)}
	}
	base := path.Dir(hdr.Name)
	if path.Base(hdr.Name) != ManifestName {
		return nil, &ReadError{Path: archivePath, Reason: fmt.Sprintf("first archive entry %s is not a manifest", hdr.Name)}
	}

	m, err := manifest.NewFromReader(r.tr)
	if err != nil {
		return nil, &ReadError{Path: archivePath, Reason: err.Error()}
	}

	return &Archive{Path: archivePath, Basedir: base, Manifest: m}, nil
}

// openReader opens archivePath and positions a tar.Reader at its first
// entry, inferring the compression codec from the file name.
func openReader(archivePath string) (*reader, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &ReadError{Path: archivePath, Reason: fmt.Sprintf("unable to open: %v", err)}
	}
	codec := compress.CodecForName(archivePath)
	decompressor, err := compress.NewReader(codec, f)
	if err != nil {
		f.Close()
		return nil, &ReadError{Path: archivePath, Reason: fmt.Sprintf("unable to initialize decompressor: %v", err)}
	}
	return &reader{file: f, decompressor: decompressor, tr: tar.NewReader(decompressor)}, nil
}

// ReadMetadata reopens the archive and returns the content of the metadata
// entry named name (as registered by CreateOptions.Extra, not ManifestName,
// which Open already parses). Metadata is read sequentially, matching the
// reserved prefix's on-disk order, so this scans from the start of the tar
// stream each call.
func (a *Archive) ReadMetadata(name string) (io.ReadCloser, error) {
	r, err := openReader(a.Path)
	if err != nil {
		return nil, err
	}
	target := path.Join(a.Basedir, name)
	for {
		hdr, err := r.tr.Next()
		if err == io.EOF {
			r.file.Close()
			return nil, &ReadError{Path: a.Path, Reason: fmt.Sprintf("metadata entry %s not found", name)}
		}
		if err != nil {
			r.file.Close()
			return nil, &ReadError{Path: a.Path, Reason: err.Error()}
		}
		if hdr.Name == target {
			return metadataReadCloser{reader: r.tr, closer: r.file}, nil
		}
	}
}

type metadataReadCloser struct {
	reader io.Reader
	closer io.Closer
}

func (m metadataReadCloser) Read(p []byte) (int, error) { return m.reader.Read(p) }
func (m metadataReadCloser) Close() error               { return m.closer.Close() }
