package fileinfo

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/archivetools/archivetools/pkg/pathutil"
)

// Advance is the feedback a caller sends back into Next after receiving a
// directory FileInfo, indicating whether the iterator should descend into
// that directory or skip its contents entirely.
type Advance int

const (
	// Descend causes the previously-yielded directory's children to be
	// visited next. It has no effect if the previously-yielded entry was
	// not a directory.
	Descend Advance = iota
	// Skip prunes the previously-yielded directory: its children (and their
	// descendants) are never visited.
	Skip
)

// WarnFunc receives non-fatal enumeration problems, such as an
// *pathutil.InvalidTypeError for an entity of unsupported type. The
// offending path is always skipped; the warning is advisory only.
type WarnFunc func(error)

type item struct {
	fsPath       string
	manifestPath string
}

type frame struct {
	items []item
	idx   int
}

// Iterator yields FileInfo values in depth-first, parent-before-children
// order across a set of root paths. It is a pull-based iterator trait
// corresponding to a generator-with-feedback: the caller supplies an Advance
// value on each call to steer descent into the entry most recently returned.
type Iterator struct {
	stack      []frame
	pending    *item
	excludes   []string
	algorithms []string
	warn       WarnFunc
}

// NewIterator constructs an Iterator over roots, applying excludes (exact
// path matches or doublestar glob patterns) before any FileInfo is built for
// a matching entry. warn may be nil, in which case warnings are discarded.
func NewIterator(roots []string, excludes []string, algorithms []string, warn WarnFunc) *Iterator {
	if warn == nil {
		warn = func(error) {}
	}
	items := make([]item, 0, len(roots))
	for _, root := range roots {
		mp := filepath.ToSlash(root)
		if isExcluded(mp, excludes) {
			continue
		}
		items = append(items, item{fsPath: root, manifestPath: mp})
	}
	return &Iterator{
		stack:      []frame{{items: items}},
		excludes:   excludes,
		algorithms: algorithms,
		warn:       warn,
	}
}

func isExcluded(path string, excludes []string) bool {
	for _, pattern := range excludes {
		if pattern == path {
			return true
		}
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// Next returns the next FileInfo in the traversal, applying advance as
// feedback about the FileInfo returned by the previous call. The value of
// advance is ignored on the first call (and whenever the previous entry was
// not a directory). Next returns io.EOF once the traversal is exhausted.
func (it *Iterator) Next(advance Advance) (*FileInfo, error) {
	if it.pending != nil {
		pending := *it.pending
		it.pending = nil
		if advance == Descend {
			entries, err := os.ReadDir(pending.fsPath)
			if err != nil {
				it.warn(err)
			} else {
				sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
				children := make([]item, 0, len(entries))
				for _, e := range entries {
					fsChild := filepath.Join(pending.fsPath, e.Name())
					mpChild := pending.manifestPath + "/" + e.Name()
					if isExcluded(mpChild, it.excludes) {
						continue
					}
					children = append(children, item{fsPath: fsChild, manifestPath: mpChild})
				}
				it.stack = append(it.stack, frame{items: children})
			}
		}
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.idx >= len(top.items) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		cur := top.items[top.idx]
		top.idx++

		fi, err := FromPath(cur.fsPath, cur.manifestPath, it.algorithms)
		if err != nil {
			var invalidType *pathutil.InvalidTypeError
			if errors.As(err, &invalidType) {
				it.warn(invalidType)
				continue
			}
			return nil, err
		}
		if fi.IsDir() {
			it.pending = &cur
		}
		return fi, nil
	}
	return nil, io.EOF
}

// LocalSource implements Source over the native filesystem.
type LocalSource struct {
	Algorithms []string
	Warn       WarnFunc
}

// Source is the enumeration/read contract that the archive builder is
// parameterized over, replacing the teacher language's inheritance-based
// Archive/MailArchive/CopyArchive hierarchy with a single interface.
type Source interface {
	// Enumerate returns an Iterator over roots with excludes applied.
	Enumerate(roots []string, excludes []string) *Iterator
	// Open returns a readable stream of fi's content. Only meaningful for
	// regular files.
	Open(fi *FileInfo) (io.ReadCloser, error)
}

// Enumerate implements Source.Enumerate.
func (s *LocalSource) Enumerate(roots []string, excludes []string) *Iterator {
	return NewIterator(roots, excludes, s.Algorithms, s.Warn)
}

// Open implements Source.Open by opening the entry's backing filesystem
// path directly.
func (s *LocalSource) Open(fi *FileInfo) (io.ReadCloser, error) {
	return os.Open(fi.fsPath)
}
