package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/archiveindex"
	"github.com/archivetools/archivetools/pkg/backup"
)

// loadOrCreateIndex reads backupDir's index file, or returns a fresh empty
// index if none exists yet, per original_source/src/archive/bt/index.py's
// update_index.
func loadOrCreateIndex(backupDir string) (*archiveindex.ArchiveIndex, error) {
	path := filepath.Join(backupDir, backup.IndexFileName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return archiveindex.New(), nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	return archiveindex.Load(f)
}

// writeIndex overwrites backupDir's index file with idx.
func writeIndex(backupDir string, idx *archiveindex.ArchiveIndex) error {
	path := filepath.Join(backupDir, backup.IndexFileName)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return idx.Write(f)
}

var indexConfiguration struct {
	policy  string
	user    string
	noPrune bool
}

func indexMain(command *cobra.Command, arguments []string) error {
	if indexConfiguration.user != "" && command.Flags().Changed("policy") {
		return &UsageError{Reason: "--policy and --user are mutually exclusive"}
	}

	s, err := loadSettings(indexConfiguration.policy, indexConfiguration.user)
	if err != nil {
		return err
	}

	archives, err := filepath.Glob(filepath.Join(s.backupDir, "*.tar*"))
	if err != nil {
		return err
	}

	idx, err := loadOrCreateIndex(s.backupDir)
	if err != nil {
		return err
	}
	if err := idx.AddArchives(archives, !indexConfiguration.noPrune); err != nil {
		return err
	}
	idx.Sort()
	return writeIndex(s.backupDir, idx)
}

var indexCommand = &cobra.Command{
	Use:   "index",
	Short: "Update the index of backups",
	Args:  cobra.NoArgs,
	RunE:  indexMain,
}

func init() {
	flags := indexCommand.Flags()
	flags.StringVar(&indexConfiguration.policy, "policy", "sys", "backup policy name")
	flags.StringVar(&indexConfiguration.user, "user", "", "use this user's policy instead of --policy")
	flags.BoolVar(&indexConfiguration.noPrune, "no-prune", false, "do not remove missing backups from the index")
}
