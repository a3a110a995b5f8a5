// Package compress selects a tar compression codec from an archive's file
// extension, matching spec.md's ".tar"/".tar.gz"/".tar.bz2"/".tar.xz" table.
package compress

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// Codec identifies a supported compression format.
type Codec int

const (
	// None writes/reads an uncompressed tar stream.
	None Codec = iota
	// Gzip writes/reads a gzip-compressed tar stream.
	Gzip
	// Bzip2 writes/reads a bzip2-compressed tar stream.
	Bzip2
	// Xz writes/reads an xz-compressed tar stream.
	Xz
)

// CodecForName infers the codec from an archive's file name, falling back to
// Gzip for unrecognized extensions (per spec.md §4.5).
func CodecForName(name string) Codec {
	switch {
	case strings.HasSuffix(name, ".tar"):
		return None
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return Gzip
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz2"):
		return Bzip2
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return Xz
	default:
		return Gzip
	}
}

// NewWriter wraps destination in a compressor for codec. The caller must
// Close the returned writer (which, for Gzip and Bzip2, flushes trailing
// container metadata) before closing destination itself.
func NewWriter(codec Codec, destination io.Writer) (io.WriteCloser, error) {
	switch codec {
	case None:
		return nopWriteCloser{destination}, nil
	case Gzip:
		return gzip.NewWriter(destination), nil
	case Bzip2:
		return dsnetbzip2.NewWriter(destination, nil)
	case Xz:
		return xz.NewWriter(destination)
	default:
		return nil, fmt.Errorf("unsupported compression codec %d", codec)
	}
}

// NewReader wraps source in a decompressor for codec.
func NewReader(codec Codec, source io.Reader) (io.Reader, error) {
	switch codec {
	case None:
		return source, nil
	case Gzip:
		return gzip.NewReader(source)
	case Bzip2:
		return dsnetbzip2.NewReader(source, nil)
	case Xz:
		return xz.NewReader(source)
	default:
		return nil, fmt.Errorf("unsupported compression codec %d", codec)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
