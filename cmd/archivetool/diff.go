package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/archive"
	"github.com/archivetools/archivetools/pkg/manifest"
)

var diffConfiguration struct {
	reportMeta     bool
	skipDirContent bool
}

// skipDirFilter drops every entry nested under a directory that was itself
// reported as missing from one side, per
// original_source/src/archive/cli/diff.py's _skip_dir_filter.
func skipDirFilter(entries []manifest.Entry) []manifest.Entry {
	var out []manifest.Entry
	var skipPath string
	for _, e := range entries {
		if skipPath != "" {
			p := entryPath(e)
			if p == skipPath || strings.HasPrefix(p, skipPath+"/") {
				continue
			}
		}
		out = append(out, e)
		switch {
		case e.Status == manifest.MissingA && e.B.IsDir():
			skipPath = e.B.Path
		case e.Status == manifest.MissingB && e.A.IsDir():
			skipPath = e.A.Path
		default:
			skipPath = ""
		}
	}
	return out
}

func entryPath(e manifest.Entry) string {
	if e.A != nil {
		return e.A.Path
	}
	return e.B.Path
}

func diffMain(command *cobra.Command, arguments []string) error {
	a1, err := archive.Open(arguments[0])
	if err != nil {
		return err
	}
	a2, err := archive.Open(arguments[1])
	if err != nil {
		return err
	}
	entries, err := manifest.Diff(a1.Manifest, a2.Manifest)
	if err != nil {
		return err
	}
	if diffConfiguration.skipDirContent {
		entries = skipDirFilter(entries)
	}

	out := command.OutOrStdout()
	status := 0
	for _, e := range entries {
		switch e.Status {
		case manifest.MissingA:
			fmt.Fprintf(out, "Only in %s: %s\n", arguments[1], e.B.Path)
			status = max(status, 102)
		case manifest.MissingB:
			fmt.Fprintf(out, "Only in %s: %s\n", arguments[0], e.A.Path)
			status = max(status, 102)
		case manifest.Type:
			fmt.Fprintf(out, "Entries %s:%s and %s:%s have different type\n", arguments[0], e.A.Path, arguments[1], e.B.Path)
			status = max(status, 102)
		case manifest.SymlinkTarget:
			fmt.Fprintf(out, "Symbolic links %s:%s and %s:%s have different target\n", arguments[0], e.A.Path, arguments[1], e.B.Path)
			status = max(status, 102)
		case manifest.Content:
			fmt.Fprintf(out, "Files %s:%s and %s:%s differ\n", arguments[0], e.A.Path, arguments[1], e.B.Path)
			status = max(status, 101)
		case manifest.Meta:
			if diffConfiguration.reportMeta {
				fmt.Fprintf(out, "File system metadata for %s:%s and %s:%s differ\n", arguments[0], e.A.Path, arguments[1], e.B.Path)
				status = max(status, 100)
			}
		}
	}
	exitCode = status
	return nil
}

var diffCommand = &cobra.Command{
	Use:   "diff <archive1> <archive2>",
	Short: "Show the differences between two archives",
	Args:  cobra.ExactArgs(2),
	RunE:  diffMain,
}

func init() {
	flags := diffCommand.Flags()
	flags.BoolVar(&diffConfiguration.reportMeta, "report-meta", false, "also show differences in file system metadata")
	flags.BoolVar(&diffConfiguration.skipDirContent, "skip-dir-content", false, "in the case of a subdirectory missing from one archive, only report the directory, but skip its content")
}
