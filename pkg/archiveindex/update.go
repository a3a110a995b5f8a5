package archiveindex

import (
	"path/filepath"

	"github.com/archivetools/archivetools/pkg/archive"
)

// AddArchives opens each path in paths, skipping ones already indexed
// (resolved paths are compared), and appends an IndexItem built from the
// archive's manifest header. When prune is true, any existing item whose
// path is not among the resolved paths is dropped afterward, matching
// add_archives' semantics of the index tracking exactly the given set of
// archives.
func (idx *ArchiveIndex) AddArchives(paths []string, prune bool) error {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		resolved, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		seen[resolved] = true
		if idx.Find(resolved) != nil {
			continue
		}

		a, err := archive.Open(resolved)
		if err != nil {
			return err
		}

		item, err := NewIndexItem(resolved, ArchiveHeader{
			Date: a.Manifest.Header.Date,
			Tags: a.Manifest.Header.Tags,
		})
		if err != nil {
			return err
		}
		idx.Append(item)
	}

	if prune {
		kept := idx.Items[:0]
		for _, item := range idx.Items {
			if seen[item.Path] {
				kept = append(kept, item)
			}
		}
		idx.Items = kept
	}
	return nil
}
