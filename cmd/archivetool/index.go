package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/archiveindex"
)

var indexConfiguration struct {
	prune bool
}

func indexMain(command *cobra.Command, arguments []string) error {
	if len(arguments) < 1 {
		return &UsageError{Reason: "index requires an index file path and at least one archive"}
	}
	indexPath := arguments[0]
	archives := arguments[1:]

	var idx *archiveindex.ArchiveIndex
	if f, err := os.Open(indexPath); err == nil {
		idx, err = archiveindex.Load(f)
		f.Close()
		if err != nil {
			return err
		}
	} else if os.IsNotExist(err) {
		idx = archiveindex.New()
	} else {
		return err
	}

	if err := idx.AddArchives(archives, indexConfiguration.prune); err != nil {
		return err
	}
	idx.Sort()

	out, err := os.Create(indexPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return idx.Write(out)
}

var indexCommand = &cobra.Command{
	Use:   "index <index-file> <archive...>",
	Short: "Update an archive index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  indexMain,
}

func init() {
	flags := indexCommand.Flags()
	flags.BoolVar(&indexConfiguration.prune, "prune", true, "remove missing archives from the index")
}
