package manifest

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// yamlPreamble is written before the first document of every manifest we
// serialize, matching the "%YAML 1.1" directive original_source emitted.
const yamlPreamble = "%YAML 1.1\n"

// NewFromReader parses a two-document YAML stream (header, then a sequence
// of entries) into a Manifest. Entries with a missing or invalid type fail
// with InvalidManifestError; the other fields are not checked for presence,
// and a missing one decodes to its zero value. Unknown header keys are
// tolerated for forward compatibility.
func NewFromReader(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)

	var header Header
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("unable to decode manifest header: %w", err)
	}
	if header.Version == "1.0" && header.Metadata == nil {
		// Legacy manifests predate the Metadata header key; spec.md directs
		// implementations to synthesize a single-element list in this case.
		header.Metadata = []string{".manifest.yaml"}
	}

	var records []fileinfo.Record
	if err := dec.Decode(&records); err != nil {
		if err != io.EOF {
			return nil, fmt.Errorf("unable to decode manifest entries: %w", err)
		}
	}

	entries := make([]*fileinfo.FileInfo, 0, len(records))
	for _, rec := range records {
		fi, err := fileinfo.FromRecord(rec)
		if err != nil {
			return nil, &InvalidManifestError{Path: rec.Path, Reason: err.Error()}
		}
		entries = append(entries, fi)
	}

	return &Manifest{Header: header, Entries: entries}, nil
}

// Write serializes the manifest as a two-document YAML stream: the header,
// then the sorted entries. Entries are written in their current order (the
// caller is expected to have already called Sort if ascending-path order is
// required, which NewFromSource and NewFromFileInfos guarantee).
func (m *Manifest) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(yamlPreamble); err != nil {
		return err
	}

	if _, err := bw.WriteString("---\n"); err != nil {
		return err
	}
	headerBytes, err := yaml.Marshal(m.Header)
	if err != nil {
		return fmt.Errorf("unable to encode manifest header: %w", err)
	}
	if _, err := bw.Write(headerBytes); err != nil {
		return err
	}

	records := make([]fileinfo.Record, len(m.Entries))
	for i, fi := range m.Entries {
		rec, err := fi.ToRecord()
		if err != nil {
			return fmt.Errorf("unable to encode entry %s: %w", fi.Path, err)
		}
		records[i] = rec
	}

	if _, err := bw.WriteString("---\n"); err != nil {
		return err
	}
	entriesBytes, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("unable to encode manifest entries: %w", err)
	}
	if _, err := bw.Write(entriesBytes); err != nil {
		return err
	}

	return bw.Flush()
}
