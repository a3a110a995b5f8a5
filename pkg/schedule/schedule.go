package schedule

import (
	"fmt"
	"time"

	"github.com/archivetools/archivetools/pkg/archiveindex"
)

// NoFullBackupError is raised when a Cumu or Incr schedule's chain reaches a
// FullSchedule node with no matching full archive in the index yet.
type NoFullBackupError struct {
	Name string
}

func (e *NoFullBackupError) Error() string {
	return fmt.Sprintf("no full backup found for schedule %q", e.Name)
}

// Node is a schedule chain link: Full, Cumu, or Incr. Nodes are linked in
// declared order (roots first), per spec.md's "Schedule nodes are linked in
// declared order" requirement.
type Node interface {
	// Name is the schedule's configured name, matched against
	// archiveindex.IndexItem.Schedule.
	Name() string
	// MatchDate reports whether t falls within this node's ScheduleDate.
	MatchDate(t time.Time) bool
	// BaseArchives returns the archives a backup on this schedule should
	// diff against.
	BaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error)
	// ChildBaseArchives returns the archives a schedule one level stricter
	// than this one should diff against.
	ChildBaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error)
	// ClassName identifies this node's kind ("full", "cumu", "incr") for
	// the archive index's Type/"type:" tag.
	ClassName() string
}

// base holds the fields every node kind shares.
type base struct {
	name   string
	date   ScheduleDate
	parent Node
}

func (b *base) Name() string               { return b.name }
func (b *base) MatchDate(t time.Time) bool { return b.date.Matches(t) }

// indexOf returns the position of target (by Path) within archives, or -1.
func indexOf(archives []archiveindex.IndexItem, target archiveindex.IndexItem) int {
	for i, a := range archives {
		if a.Path == target.Path {
			return i
		}
	}
	return -1
}

// FullSchedule is the root node kind: it never diffs against anything, and
// is itself the base that Cumu/Incr schedules build on.
type FullSchedule struct{ base }

// NewFullSchedule constructs a root schedule node.
func NewFullSchedule(name string, date ScheduleDate) *FullSchedule {
	return &FullSchedule{base{name: name, date: date}}
}

// ClassName is "full".
func (f *FullSchedule) ClassName() string { return "full" }

// BaseArchives for a full backup is always empty: it's a fresh baseline.
func (f *FullSchedule) BaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error) {
	return nil, nil
}

// ChildBaseArchives returns the single most recent archive on this
// schedule's name, or NoFullBackupError if none has ever run.
func (f *FullSchedule) ChildBaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error) {
	var last *archiveindex.IndexItem
	for i := range archives {
		if archives[i].Schedule == f.name {
			last = &archives[i]
		}
	}
	if last == nil {
		return nil, &NoFullBackupError{Name: f.name}
	}
	return []archiveindex.IndexItem{*last}, nil
}

// CumuSchedule diffs against its parent's child base only. Schedules
// chained below it diff against that base plus the most recent cumulative
// archive taken since it (see ChildBaseArchives).
type CumuSchedule struct{ base }

// NewCumuSchedule constructs a cumulative schedule node chained to parent.
func NewCumuSchedule(name string, date ScheduleDate, parent Node) *CumuSchedule {
	return &CumuSchedule{base{name: name, date: date, parent: parent}}
}

// ClassName is "cumu".
func (c *CumuSchedule) ClassName() string { return "cumu" }

func (c *CumuSchedule) BaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error) {
	return c.parent.ChildBaseArchives(archives)
}

func (c *CumuSchedule) ChildBaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error) {
	baseArchives, err := c.parent.ChildBaseArchives(archives)
	if err != nil {
		return nil, err
	}
	pIdx := indexOf(archives, baseArchives[len(baseArchives)-1])
	var lastCumu *archiveindex.IndexItem
	for i := pIdx + 1; i < len(archives); i++ {
		if archives[i].Schedule == c.name {
			lastCumu = &archives[i]
		}
	}
	if lastCumu != nil {
		baseArchives = append(baseArchives, *lastCumu)
	}
	return baseArchives, nil
}

// IncrSchedule diffs against its parent's base plus every incremental
// archive taken since that base, in order.
type IncrSchedule struct{ base }

// NewIncrSchedule constructs an incremental schedule node chained to parent.
func NewIncrSchedule(name string, date ScheduleDate, parent Node) *IncrSchedule {
	return &IncrSchedule{base{name: name, date: date, parent: parent}}
}

// ClassName is "incr".
func (i *IncrSchedule) ClassName() string { return "incr" }

func (i *IncrSchedule) BaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error) {
	baseArchives, err := i.parent.ChildBaseArchives(archives)
	if err != nil {
		return nil, err
	}
	pIdx := indexOf(archives, baseArchives[len(baseArchives)-1])
	for j := pIdx + 1; j < len(archives); j++ {
		if archives[j].Schedule == i.name {
			baseArchives = append(baseArchives, archives[j])
		}
	}
	return baseArchives, nil
}

func (i *IncrSchedule) ChildBaseArchives(archives []archiveindex.IndexItem) ([]archiveindex.IndexItem, error) {
	return i.BaseArchives(archives)
}

// Select iterates nodes in declared order and returns the first whose
// ScheduleDate matches t, or nil if none do (a no-op run per spec.md §4.8).
func Select(nodes []Node, t time.Time) Node {
	for _, n := range nodes {
		if n.MatchDate(t) {
			return n
		}
	}
	return nil
}
