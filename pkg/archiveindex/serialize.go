package archiveindex

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const yamlPreamble = "%YAML 1.1\n"

// Load parses a two-document YAML stream (header, then item list) into an
// ArchiveIndex.
func Load(r io.Reader) (*ArchiveIndex, error) {
	dec := yaml.NewDecoder(r)

	var header Header
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("unable to decode index header: %w", err)
	}

	var records []record
	if err := dec.Decode(&records); err != nil {
		if err != io.EOF {
			return nil, fmt.Errorf("unable to decode index items: %w", err)
		}
	}

	items := make([]IndexItem, 0, len(records))
	for _, r := range records {
		item, err := fromRecord(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &ArchiveIndex{Header: header, Items: items}, nil
}

// Write serializes the index as a two-document YAML stream: the header,
// then the items in their current order (callers wanting date order should
// call Sort first).
func (idx *ArchiveIndex) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(yamlPreamble); err != nil {
		return err
	}

	if _, err := bw.WriteString("---\n"); err != nil {
		return err
	}
	headerBytes, err := yaml.Marshal(idx.Header)
	if err != nil {
		return fmt.Errorf("unable to encode index header: %w", err)
	}
	if _, err := bw.Write(headerBytes); err != nil {
		return err
	}

	records := make([]record, len(idx.Items))
	for i, item := range idx.Items {
		records[i] = item.toRecord()
	}

	if _, err := bw.WriteString("---\n"); err != nil {
		return err
	}
	itemsBytes, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("unable to encode index items: %w", err)
	}
	if _, err := bw.Write(itemsBytes); err != nil {
		return err
	}

	return bw.Flush()
}
