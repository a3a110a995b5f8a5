// Package backup implements the differential backup driver: given a host,
// policy, and schedule chain, it selects a schedule for now, diffs the
// current tree against the chain of base archives the schedule names, and
// writes the result as a new archive, grounded on
// original_source/src/archive/bt/create.py.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/archivetools/archivetools/pkg/archive"
	"github.com/archivetools/archivetools/pkg/archiveindex"
	"github.com/archivetools/archivetools/pkg/fileinfo"
	"github.com/archivetools/archivetools/pkg/logging"
	"github.com/archivetools/archivetools/pkg/manifest"
	"github.com/archivetools/archivetools/pkg/schedule"
)

// IndexFileName is the archive index's conventional name within a backup
// directory, per spec.md §6.
const IndexFileName = ".index.yaml"

// CreateError wraps a driver-level failure, such as a missing base backup.
type CreateError struct {
	Reason string
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("backup create error: %s", e.Reason)
}

// Driver orchestrates one scheduled differential backup run against a
// backup directory's archive index.
type Driver struct {
	Source     fileinfo.Source
	Schedules  []schedule.Node
	Host       string
	Policy     string
	User       string
	Dirs       []string
	Excludes   []string
	BackupDir  string
	Algorithms []string
	Generator  string
	Dedup      archive.DedupPolicy
	Log        *logging.Logger
}

// Result summarizes one Run invocation.
type Result struct {
	// ArchivePath is set iff Created is true.
	ArchivePath string
	// Schedule is the name of the schedule that was selected, even when
	// nothing was ultimately written because the diff was empty.
	Schedule string
	Created  bool
}

// indexPath returns the conventional index file location under BackupDir.
func (d *Driver) indexPath() string {
	return filepath.Join(d.BackupDir, IndexFileName)
}

// loadIndex reads the backup directory's index, returning an empty one if
// it does not yet exist.
func (d *Driver) loadIndex() (*archiveindex.ArchiveIndex, error) {
	f, err := os.Open(d.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			d.Log.Debug("index file not found")
			return archiveindex.New(), nil
		}
		return nil, err
	}
	defer f.Close()
	d.Log.Debug("reading index file %s", d.indexPath())
	return archiveindex.Load(f)
}

// Run selects a schedule for now, builds the differential manifest against
// that schedule's base archives, and writes a new archive at archivePath if
// there is anything to write. When no schedule matches now, Run returns a
// zero Result and a nil error (a no-op run); when the diff is empty, it
// returns a nil error and a Result with only Schedule set.
func (d *Driver) Run(now time.Time, archivePath string) (Result, error) {
	idx, err := d.loadIndex()
	if err != nil {
		return Result{}, err
	}
	idx.Sort()

	filter := map[string]string{"host": d.Host, "policy": d.Policy}
	if d.Policy == "user" {
		filter["user"] = d.User
	}
	filtered := idx.Filter(filter)

	node := schedule.Select(d.Schedules, now)
	if node == nil {
		d.Log.Debug("no schedule date matches now")
		return Result{}, nil
	}

	current, err := manifest.NewFromSource(d.Source, d.Dirs, d.Excludes, d.Algorithms, []string{archive.ManifestName}, d.Generator)
	if err != nil {
		return Result{}, err
	}

	bases, err := node.BaseArchives(filtered)
	if err != nil {
		if nfb, ok := err.(*schedule.NoFullBackupError); ok {
			return Result{}, &CreateError{Reason: fmt.Sprintf("no previous full backup found, cannot create %s archive: %v", node.Name(), nfb)}
		}
		return Result{}, err
	}

	entries := current.Entries
	for _, base := range bases {
		d.Log.Debug("considering %s to create differential archive", base.Path)
		baseArchive, err := archive.Open(base.Path)
		if err != nil {
			return Result{}, err
		}
		entries, err = diffAgainstBase(baseArchive.Manifest, entries, d.Algorithms, d.Generator)
		if err != nil {
			return Result{}, err
		}
	}

	if len(entries) == 0 {
		d.Log.Debug("nothing to archive")
		return Result{Schedule: node.Name()}, nil
	}

	tags := []string{
		"host:" + d.Host,
		"policy:" + d.Policy,
		"schedule:" + node.Name(),
		"type:" + node.ClassName(),
	}
	if d.User != "" {
		tags = append(tags, "user:"+d.User)
	}

	opts := archive.CreateOptions{
		Roots:      d.Dirs,
		Excludes:   d.Excludes,
		Algorithms: d.Algorithms,
		Generator:  d.Generator,
		Dedup:      d.Dedup,
		Tags:       tags,
	}
	d.Log.Debug("creating archive %s", archivePath)
	if err := archive.CreateFromEntries(archivePath, d.Source, entries, opts); err != nil {
		return Result{}, err
	}

	return Result{ArchivePath: archivePath, Schedule: node.Name(), Created: true}, nil
}

// diffAgainstBase diffs current against base's manifest, keeping entries
// that are new or changed (dropping MATCH and MISSING_B, per
// original_source's filter_fileinfos), and returns the surviving FileInfo
// set for the next base in the chain.
func diffAgainstBase(base *manifest.Manifest, current []*fileinfo.FileInfo, algorithms []string, generator string) ([]*fileinfo.FileInfo, error) {
	currentManifest, err := manifest.NewFromFileInfos(current, algorithms, nil, generator)
	if err != nil {
		return nil, err
	}

	diffEntries, err := manifest.Diff(base, currentManifest)
	if err != nil {
		return nil, err
	}

	var kept []*fileinfo.FileInfo
	for _, entry := range diffEntries {
		if entry.Status == manifest.Match || entry.Status == manifest.MissingB {
			continue
		}
		kept = append(kept, entry.B)
	}
	return kept, nil
}
