// Package fileinfo implements the canonical per-path manifest record
// (FileInfo) and the depth-first, feedback-driven filesystem enumeration
// that produces one FileInfo per visited entity.
package fileinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/archivetools/archivetools/pkg/checksum"
	"github.com/archivetools/archivetools/pkg/pathutil"
)

// FileInfo is one manifest entry: a directory, regular file, or symbolic
// link, normalized to a path relative to (or, for absolute manifests,
// rooted at) a shared basedir.
type FileInfo struct {
	Type  pathutil.Type
	Path  string
	Mode  os.FileMode // permission bits only, never type bits
	UID   int
	GID   int
	UName string
	GName string
	// MTime is the modification time in seconds since the epoch, retaining
	// sub-second precision for serialization; comparisons elsewhere in this
	// module use integer seconds only (spec-mandated to ignore sub-second
	// noise).
	MTime float64

	// Size and Checksum are populated for regular files only.
	Size int64
	// Target is populated for symbolic links only.
	Target string

	// fsPath is the on-disk location backing a lazily-computed checksum. It
	// is empty for FileInfo values reconstructed from a manifest record,
	// which already carry their checksum.
	fsPath     string
	algorithms []string

	checksumOnce sync.Once
	checksum     map[string]string
	checksumErr  error
}

// MTimeSeconds returns the modification time truncated to whole seconds, the
// only granularity diff and verify ever compare.
func (fi *FileInfo) MTimeSeconds() int64 {
	return int64(fi.MTime)
}

func (fi *FileInfo) IsDir() bool     { return fi.Type == pathutil.TypeDirectory }
func (fi *FileInfo) IsFile() bool    { return fi.Type == pathutil.TypeFile }
func (fi *FileInfo) IsSymlink() bool { return fi.Type == pathutil.TypeSymlink }

// Checksum returns the checksum digests for this entry, computing them on
// first access if the FileInfo was constructed from a filesystem path. The
// underlying hash pass runs at most once per instance regardless of how many
// times Checksum is called.
func (fi *FileInfo) Checksum() (map[string]string, error) {
	if fi.checksum != nil || fi.checksumErr != nil || fi.fsPath == "" {
		return fi.checksum, fi.checksumErr
	}
	fi.checksumOnce.Do(func() {
		f, err := os.Open(fi.fsPath)
		if err != nil {
			fi.checksumErr = fmt.Errorf("%s: unable to open for checksum: %w", fi.fsPath, err)
			return
		}
		defer f.Close()
		sums, err := checksum.Sum(f, fi.algorithms)
		if err != nil {
			fi.checksumErr = fmt.Errorf("%s: %w", fi.fsPath, err)
			return
		}
		fi.checksum = sums
	})
	return fi.checksum, fi.checksumErr
}

// FSPath returns the on-disk path backing this entry, or "" if it was
// reconstructed from a manifest record rather than a live filesystem scan.
func (fi *FileInfo) FSPath() string {
	return fi.fsPath
}

// SetChecksum installs a precomputed checksum map, used when reconstructing
// a FileInfo from an already-serialized manifest record.
func (fi *FileInfo) SetChecksum(sums map[string]string) {
	fi.checksumOnce.Do(func() {})
	fi.checksum = sums
}

// FromPath constructs a FileInfo by stat-ing fsPath. manifestPath is the
// path recorded in the manifest (basedir-relative or absolute, using forward
// slashes); it need not equal fsPath. Checksum computation for regular files
// is deferred until Checksum is first called. algorithms is the checksum
// algorithm list that will be used for that deferred computation.
func FromPath(fsPath, manifestPath string, algorithms []string) (*FileInfo, error) {
	lst, err := os.Lstat(fsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to stat: %w", fsPath, err)
	}

	typ, err := pathutil.ClassifyMode(manifestPath, lst.Mode())
	if err != nil {
		return nil, err
	}

	uid, gid, uname, gname := lookupOwnership(lst)

	fi := &FileInfo{
		Type:       typ,
		Path:       filepath.ToSlash(manifestPath),
		Mode:       lst.Mode().Perm(),
		UID:        uid,
		GID:        gid,
		UName:      uname,
		GName:      gname,
		MTime:      float64(lst.ModTime().UnixNano()) / 1e9,
		fsPath:     fsPath,
		algorithms: algorithms,
	}

	switch typ {
	case pathutil.TypeFile:
		fi.Size = lst.Size()
	case pathutil.TypeSymlink:
		target, err := os.Readlink(fsPath)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to read symlink target: %w", fsPath, err)
		}
		fi.Target = filepath.ToSlash(target)
	}

	return fi, nil
}

// Record is the plain-data shape of a FileInfo as it appears in a manifest
// document: it round-trips through YAML without any of FileInfo's lazy
// checksum machinery.
type Record struct {
	Type     string            `yaml:"type"`
	Path     string            `yaml:"path"`
	UID      int               `yaml:"uid"`
	UName    string            `yaml:"uname"`
	GID      int               `yaml:"gid"`
	GName    string            `yaml:"gname"`
	Mode     uint32            `yaml:"mode"`
	MTime    float64           `yaml:"mtime"`
	Size     int64             `yaml:"size,omitempty"`
	Checksum map[string]string `yaml:"checksum,omitempty"`
	Target   string            `yaml:"target,omitempty"`
}

// FromRecord reconstructs a FileInfo from a deserialized manifest record.
func FromRecord(r Record) (*FileInfo, error) {
	if len(r.Type) != 1 {
		return nil, fmt.Errorf("%s: invalid manifest entry type %q", r.Path, r.Type)
	}
	typ := pathutil.Type(r.Type[0])
	switch typ {
	case pathutil.TypeDirectory, pathutil.TypeFile, pathutil.TypeSymlink:
	default:
		return nil, fmt.Errorf("%s: invalid manifest entry type %q", r.Path, r.Type)
	}

	fi := &FileInfo{
		Type:  typ,
		Path:  r.Path,
		Mode:  os.FileMode(r.Mode),
		UID:   r.UID,
		GID:   r.GID,
		UName: r.UName,
		GName: r.GName,
		MTime: r.MTime,
	}
	switch typ {
	case pathutil.TypeFile:
		fi.Size = r.Size
		fi.SetChecksum(r.Checksum)
	case pathutil.TypeSymlink:
		fi.Target = r.Target
	}
	return fi, nil
}

// ToRecord converts the FileInfo into its serializable record shape. For
// regular files this forces checksum computation if it has not happened
// already.
func (fi *FileInfo) ToRecord() (Record, error) {
	r := Record{
		Type:  fi.Type.String(),
		Path:  fi.Path,
		UID:   fi.UID,
		UName: fi.UName,
		GID:   fi.GID,
		GName: fi.GName,
		Mode:  uint32(fi.Mode),
		MTime: fi.MTime,
	}
	switch fi.Type {
	case pathutil.TypeFile:
		sums, err := fi.Checksum()
		if err != nil {
			return Record{}, err
		}
		r.Size = fi.Size
		r.Checksum = sums
	case pathutil.TypeSymlink:
		r.Target = fi.Target
	}
	return r, nil
}

// String renders a FileInfo similarly to the "ls -l" style line used by the
// archive-listing CLI.
func (fi *FileInfo) String() string {
	owner := fi.UName
	if owner == "" {
		owner = fmt.Sprintf("%d", fi.UID)
	}
	group := fi.GName
	if group == "" {
		group = fmt.Sprintf("%d", fi.GID)
	}
	name := fi.Path
	if fi.IsSymlink() {
		name = fmt.Sprintf("%s -> %s", fi.Path, fi.Target)
	}
	return fmt.Sprintf("%s%s  %s/%s  %8d  %s", fi.Type.String(), fi.Mode, owner, group, fi.Size, name)
}
