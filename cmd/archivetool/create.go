package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/archive"
	"github.com/archivetools/archivetools/pkg/compress"
	"github.com/archivetools/archivetools/pkg/fileinfo"
	"github.com/archivetools/archivetools/pkg/progress"
)

var createConfiguration struct {
	tags        []string
	compression string
	basedir     string
	excludes    []string
	deduplicate string
	directory   string
	algorithms  []string
}

func codecName(c compress.Codec) string {
	switch c {
	case compress.None:
		return "none"
	case compress.Gzip:
		return "gz"
	case compress.Bzip2:
		return "bz2"
	case compress.Xz:
		return "xz"
	default:
		return "unknown"
	}
}

func createMain(command *cobra.Command, arguments []string) error {
	if len(arguments) < 2 {
		return &UsageError{Reason: "create requires an archive path and at least one file"}
	}
	archivePath := arguments[0]
	roots := arguments[1:]

	if createConfiguration.compression != "" {
		inferred := codecName(compress.CodecForName(archivePath))
		if createConfiguration.compression != inferred {
			return &UsageError{Reason: fmt.Sprintf("--compression %s does not match the archive name's inferred codec %s", createConfiguration.compression, inferred)}
		}
	}

	dedup, ok := archive.ParseDedupPolicy(createConfiguration.deduplicate)
	if !ok {
		return &UsageError{Reason: fmt.Sprintf("invalid --deduplicate value %q", createConfiguration.deduplicate)}
	}

	algorithms := createConfiguration.algorithms
	if len(algorithms) == 0 {
		algorithms = []string{"sha256"}
	}

	var source fileinfo.Source = &fileinfo.LocalSource{Algorithms: algorithms, Warn: func(err error) {
		fmt.Fprintln(command.ErrOrStderr(), "Warning:", err)
	}}
	if progress.IsTerminal(os.Stderr) {
		bar := progress.NewBar(os.Stderr, "Archiving")
		defer bar.Finish()
		source = &progress.Source{Source: source, Bar: bar}
	}

	opts := archive.CreateOptions{
		Roots:      roots,
		Excludes:   createConfiguration.excludes,
		Basedir:    createConfiguration.basedir,
		Algorithms: algorithms,
		Dedup:      dedup,
		Tags:       createConfiguration.tags,
		Workdir:    createConfiguration.directory,
	}
	return archive.Create(archivePath, source, opts)
}

var createCommand = &cobra.Command{
	Use:   "create <archive> <files...>",
	Short: "Create the archive",
	Args:  cobra.MinimumNArgs(1),
	RunE:  createMain,
}

func init() {
	flags := createCommand.Flags()
	flags.StringArrayVar(&createConfiguration.tags, "tag", nil, "user defined tags to mark the archive")
	flags.StringVar(&createConfiguration.compression, "compression", "", "compression mode (none, gz, bz2, xz)")
	flags.StringVar(&createConfiguration.basedir, "basedir", "", "common base directory in the archive")
	flags.StringArrayVar(&createConfiguration.excludes, "exclude", nil, "exclude this path")
	flags.StringVar(&createConfiguration.deduplicate, "deduplicate", "link", "when to use hard links to duplicate files (never, link, content)")
	flags.StringVar(&createConfiguration.directory, "directory", "", "change directory prior to creating the archive")
	flags.StringSliceVar(&createConfiguration.algorithms, "checksum", nil, "checksum algorithms to record, canonical first (default sha256)")
}
