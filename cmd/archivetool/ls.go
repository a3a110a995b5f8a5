package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/archive"
)

var lsConfiguration struct {
	format   string
	checksum string
}

func lsMain(command *cobra.Command, arguments []string) error {
	a, err := archive.Open(arguments[0])
	if err != nil {
		return err
	}
	out := command.OutOrStdout()
	switch lsConfiguration.format {
	case "ls":
		for _, fi := range a.Manifest.Entries {
			fmt.Fprintln(out, fi.String())
		}
	case "long":
		for _, fi := range a.Manifest.Entries {
			size := "-"
			if fi.IsFile() {
				size = humanize.Bytes(uint64(fi.Size))
			}
			fmt.Fprintf(out, "%s %8s %s\n", fi.Type.String(), size, fi.Path)
		}
	case "checksum":
		algorithm := lsConfiguration.checksum
		if algorithm == "" {
			if len(a.Manifest.Header.Checksums) == 0 {
				return &UsageError{Reason: "archive records no checksum algorithms"}
			}
			algorithm = a.Manifest.Header.Checksums[0]
		} else if !contains(a.Manifest.Header.Checksums, algorithm) {
			return &UsageError{Reason: fmt.Sprintf("checksums using %q hashes not available", algorithm)}
		}
		for _, fi := range a.Manifest.Entries {
			if !fi.IsFile() {
				continue
			}
			sums, err := fi.Checksum()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %s\n", sums[algorithm], fi.Path)
		}
	default:
		return &UsageError{Reason: fmt.Sprintf("invalid --format value %q", lsConfiguration.format)}
	}
	return nil
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

var lsCommand = &cobra.Command{
	Use:   "ls <archive>",
	Short: "List files in the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  lsMain,
}

func init() {
	flags := lsCommand.Flags()
	flags.StringVar(&lsConfiguration.format, "format", "ls", "output style (ls, long, checksum)")
	flags.StringVar(&lsConfiguration.checksum, "checksum", "", "hash algorithm for --format checksum")
}
