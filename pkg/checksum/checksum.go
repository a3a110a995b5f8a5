// Package checksum computes streaming multi-algorithm digests of a byte
// source without buffering it in memory.
package checksum

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/xxh3"
)

// chunkSize is the read granularity used while streaming a source through
// the configured hash functions.
const chunkSize = 8192

// NewHash constructs a hash.Hash for the named algorithm. The supported set
// intentionally mirrors what a manifest's Checksums header may list.
func NewHash(name string) (hash.Hash, error) {
	switch name {
	case "sha256":
		return sha256.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "xxh3":
		return xxh3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", name)
	}
}

// Sum streams source in fixed-size chunks through every named algorithm and
// returns a map from algorithm name to lowercase hex digest. An empty
// algorithms list returns an empty map without reading source at all.
func Sum(source io.Reader, algorithms []string) (map[string]string, error) {
	if len(algorithms) == 0 {
		return map[string]string{}, nil
	}

	hashes := make(map[string]hash.Hash, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	for _, name := range algorithms {
		h, err := NewHash(name)
		if err != nil {
			return nil, err
		}
		hashes[name] = h
		writers = append(writers, h)
	}
	multi := io.MultiWriter(writers...)

	buffer := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(multi, source, buffer); err != nil {
		return nil, fmt.Errorf("unable to read source for checksum: %w", err)
	}

	digests := make(map[string]string, len(algorithms))
	for _, name := range algorithms {
		digests[name] = hex.EncodeToString(hashes[name].Sum(nil))
	}
	return digests, nil
}
