package manifest

import "time"

// Version is the manifest schema version emitted by this implementation.
const Version = "1.1"

// dateLayout is the RFC 5322 timestamp layout used for Header.Date, matching
// what original_source's now_str()/date_str_rfc5322() produced.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// Header is the manifest's typed preamble: the first of the two documents in
// a manifest's YAML stream.
type Header struct {
	Checksums []string `yaml:"Checksums"`
	Date      string   `yaml:"Date"`
	Generator string   `yaml:"Generator"`
	Metadata  []string `yaml:"Metadata"`
	Version   string   `yaml:"Version"`
	Tags      []string `yaml:"Tags,omitempty"`
}

// NewHeader builds a Header for a manifest generated now, with the given
// checksum algorithms (canonical algorithm first) and metadata prefix.
func NewHeader(algorithms []string, metadata []string, generator string) Header {
	return Header{
		Checksums: algorithms,
		Date:      time.Now().Format(dateLayout),
		Generator: generator,
		Metadata:  metadata,
		Version:   Version,
	}
}
