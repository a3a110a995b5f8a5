package main

import (
	"fmt"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/archive"
	"github.com/archivetools/archivetools/pkg/fileinfo"
)

var findConfiguration struct {
	typeFilter string
	name       string
	mtime      string
}

// timeInterval is a half-bounded time interval, matching
// original_source/src/archive/cli/find.py's timeinterval.
type timeInterval struct {
	before bool // true if direct is '<' (strictly before point)
	point  time.Time
}

func parseTimeInterval(s string) (*timeInterval, error) {
	if s == "" {
		return nil, nil
	}
	if len(s) < 2 || (s[0] != '<' && s[0] != '>') {
		return nil, &UsageError{Reason: fmt.Sprintf("invalid --mtime value %q: must start with < or >", s)}
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s[1:], time.Local)
	if err != nil {
		t, err = time.ParseInLocation("2006-01-02", s[1:], time.Local)
		if err != nil {
			return nil, &UsageError{Reason: fmt.Sprintf("invalid --mtime value %q: %v", s, err)}
		}
	}
	return &timeInterval{before: s[0] == '<', point: t}, nil
}

func (ti *timeInterval) matches(mtime int64) bool {
	t := time.Unix(mtime, 0)
	if ti.before {
		return t.Before(ti.point)
	}
	return t.After(ti.point)
}

func findMain(command *cobra.Command, arguments []string) error {
	interval, err := parseTimeInterval(findConfiguration.mtime)
	if err != nil {
		return err
	}

	out := command.OutOrStdout()
	for _, p := range arguments {
		a, err := archive.Open(p)
		if err != nil {
			return err
		}
		for _, fi := range a.Manifest.Entries {
			if !matchesFind(fi, interval) {
				continue
			}
			fmt.Fprintf(out, "%s:%s\n", p, fi.Path)
		}
	}
	return nil
}

func matchesFind(fi *fileinfo.FileInfo, interval *timeInterval) bool {
	if findConfiguration.name != "" {
		matched, err := path.Match(findConfiguration.name, path.Base(fi.Path))
		if err != nil || !matched {
			return false
		}
	}
	if findConfiguration.typeFilter != "" {
		if fi.Type.String() != findConfiguration.typeFilter {
			return false
		}
	}
	if interval != nil && !interval.matches(fi.MTimeSeconds()) {
		return false
	}
	return true
}

var findCommand = &cobra.Command{
	Use:   "find <archive...>",
	Short: "Search for files in archives",
	Args:  cobra.MinimumNArgs(1),
	RunE:  findMain,
}

func init() {
	flags := findCommand.Flags()
	flags.StringVar(&findConfiguration.typeFilter, "type", "", "find entries by type (f, d, l)")
	flags.StringVar(&findConfiguration.name, "name", "", "find entries whose base name matches pattern")
	flags.StringVar(&findConfiguration.mtime, "mtime", "", "find entries by modification time (<YYYY-MM-DD or >YYYY-MM-DD)")
}
