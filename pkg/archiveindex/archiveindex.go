// Package archiveindex implements the sorted catalog of known archives
// (ArchiveIndex/IndexItem) used to locate base archives for incremental and
// cumulative backups, grounded on original_source's archive/index.py.
package archiveindex

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Version is the index schema version emitted by this implementation.
const Version = "1.0"

// IndexItem records one archive's identity: where it lives, when it was
// created, and the tags (host/policy/user/schedule/type) parsed out of its
// manifest header at index time.
type IndexItem struct {
	Date     time.Time
	Path     string
	Host     string
	Policy   string
	User     string
	Schedule string
	Type     string
}

// record is IndexItem's on-disk shape; fields are omitted when empty,
// matching as_dict's selective inclusion.
type record struct {
	Date     string `yaml:"date"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host,omitempty"`
	Policy   string `yaml:"policy,omitempty"`
	User     string `yaml:"user,omitempty"`
	Schedule string `yaml:"schedule,omitempty"`
	Type     string `yaml:"type,omitempty"`
}

// isoformatLayout mirrors Python's datetime.isoformat(sep=' ') output, which
// is what as_dict wrote the date field as.
const isoformatLayout = "2006-01-02 15:04:05-07:00"

func (i IndexItem) toRecord() record {
	return record{
		Date:     i.Date.Format(isoformatLayout),
		Path:     i.Path,
		Host:     i.Host,
		Policy:   i.Policy,
		User:     i.User,
		Schedule: i.Schedule,
		Type:     i.Type,
	}
}

func fromRecord(r record) (IndexItem, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return IndexItem{}, err
	}
	return IndexItem{
		Date:     date,
		Path:     r.Path,
		Host:     r.Host,
		Policy:   r.Policy,
		User:     r.User,
		Schedule: r.Schedule,
		Type:     r.Type,
	}, nil
}

// dateLayouts lists every textual form parse_date accepted: isoformat(sep=
// ' ') (what this package writes), ISO 8601 with a "T" separator, RFC 5322
// with a zone, and RFC 5322 without one.
var dateLayouts = []string{
	isoformatLayout,
	"2006-01-02T15:04:05-07:00",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04:05",
}

// ParseDate parses a date string in any of the formats this package or a
// manifest header may have produced.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("invalid date string %q: %w", s, lastErr)
}

// ArchiveHeader is the subset of a manifest header IndexItem needs to
// describe an archive; pkg/archive.Archive satisfies this via its Manifest's
// Header field.
type ArchiveHeader struct {
	Date string
	Tags []string
}

// NewIndexItem builds an IndexItem from an archive's path and header,
// parsing Tags entries of the form "key:value" into the host/policy/user/
// schedule/type fields. A tag is split at its first colon, so any further
// colons stay part of the value; tags without a colon, or with an
// unrecognized key, are ignored.
func NewIndexItem(path string, header ArchiveHeader) (IndexItem, error) {
	date, err := ParseDate(header.Date)
	if err != nil {
		return IndexItem{}, err
	}
	item := IndexItem{Date: date, Path: path}
	for _, tag := range header.Tags {
		parts := strings.SplitN(tag, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]
		switch key {
		case "host":
			item.Host = value
		case "policy":
			item.Policy = value
		case "user":
			item.User = value
		case "schedule":
			item.Schedule = value
		case "type":
			item.Type = value
		}
	}
	return item, nil
}

// AsFilterMap returns the item's non-empty fields as a map, the same shape
// a Filter is expressed in.
func (i IndexItem) AsFilterMap() map[string]string {
	m := map[string]string{}
	if i.Host != "" {
		m["host"] = i.Host
	}
	if i.Policy != "" {
		m["policy"] = i.Policy
	}
	if i.User != "" {
		m["user"] = i.User
	}
	if i.Schedule != "" {
		m["schedule"] = i.Schedule
	}
	if i.Type != "" {
		m["type"] = i.Type
	}
	return m
}

// Matches reports whether every key/value pair in filter also holds in i,
// with equal value. An empty filter matches everything.
func (i IndexItem) Matches(filter map[string]string) bool {
	fields := i.AsFilterMap()
	for k, v := range filter {
		if fields[k] != v {
			return false
		}
	}
	return true
}

// Header is the index file's typed preamble.
type Header struct {
	Version string `yaml:"Version"`
}

// ArchiveIndex is the sorted catalog of known archives.
type ArchiveIndex struct {
	Header Header
	Items  []IndexItem
}

// New returns an empty index at the current schema version.
func New() *ArchiveIndex {
	return &ArchiveIndex{Header: Header{Version: Version}}
}

// Len reports the number of items.
func (idx *ArchiveIndex) Len() int { return len(idx.Items) }

// Append adds item to the end of the index, unsorted.
func (idx *ArchiveIndex) Append(item IndexItem) {
	idx.Items = append(idx.Items, item)
}

// Find returns the item whose Path equals path, or nil if none does.
func (idx *ArchiveIndex) Find(path string) *IndexItem {
	for i := range idx.Items {
		if idx.Items[i].Path == path {
			return &idx.Items[i]
		}
	}
	return nil
}

// Filter returns every item matching filter, in index order.
func (idx *ArchiveIndex) Filter(filter map[string]string) []IndexItem {
	var out []IndexItem
	for _, item := range idx.Items {
		if item.Matches(filter) {
			out = append(out, item)
		}
	}
	return out
}

// Sort reorders Items by date ascending; ties are broken stably (preserving
// insertion order), matching Python's list.sort() stability.
func (idx *ArchiveIndex) Sort() {
	sort.SliceStable(idx.Items, func(i, j int) bool {
		return idx.Items[i].Date.Before(idx.Items[j].Date)
	})
}
