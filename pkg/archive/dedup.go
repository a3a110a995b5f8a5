package archive

// DedupPolicy controls how Create handles duplicate file content.
type DedupPolicy int

const (
	// DedupNever writes every file as a full regular entry.
	DedupNever DedupPolicy = iota
	// DedupLink emits a tar hard-link entry for any file sharing a
	// (device, inode) pair with an earlier entry that has a link count
	// greater than one.
	DedupLink
	// DedupContent emits a tar hard-link entry for any file whose
	// canonical checksum matches an earlier entry's. Files carrying no
	// checksum are treated as unique and always written in full.
	DedupContent
)

// ParseDedupPolicy maps the CLI/config spelling onto a DedupPolicy.
func ParseDedupPolicy(name string) (DedupPolicy, bool) {
	switch name {
	case "", "never":
		return DedupNever, true
	case "link":
		return DedupLink, true
	case "content":
		return DedupContent, true
	default:
		return DedupNever, false
	}
}

// linkIndex tracks first-seen arcnames for DedupLink and DedupContent, keyed
// by whatever identity string the caller derives (device/inode pair or
// checksum).
type linkIndex struct {
	seen map[string]string
}

func newLinkIndex() *linkIndex {
	return &linkIndex{seen: make(map[string]string)}
}

// arcnameFor returns the earlier arcname for key, if any, and records
// arcname as the canonical occurrence when key hasn't been seen before.
func (idx *linkIndex) arcnameFor(key, arcname string) (string, bool) {
	if existing, ok := idx.seen[key]; ok {
		return existing, true
	}
	idx.seen[key] = arcname
	return "", false
}
