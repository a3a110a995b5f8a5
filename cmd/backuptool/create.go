package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/backup"
	"github.com/archivetools/archivetools/pkg/config"
	"github.com/archivetools/archivetools/pkg/fileinfo"
	"github.com/archivetools/archivetools/pkg/logging"
	"github.com/archivetools/archivetools/pkg/progress"
)

var createConfiguration struct {
	policy  string
	user    string
	verbose bool
}

func createMain(command *cobra.Command, arguments []string) error {
	if createConfiguration.user != "" && command.Flags().Changed("policy") {
		return &UsageError{Reason: "--policy and --user are mutually exclusive"}
	}

	level := logging.LevelInfo
	if createConfiguration.verbose {
		level = logging.LevelDebug
	}
	log, err := logging.New(logging.Config{Level: level, Color: progress.IsTerminal(os.Stderr)})
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := loadSettings(createConfiguration.policy, createConfiguration.user)
	if err != nil {
		return err
	}

	var source fileinfo.Source = &fileinfo.LocalSource{Algorithms: s.algorithms, Warn: func(err error) {
		log.Warn(err)
	}}
	if progress.IsTerminal(os.Stderr) {
		bar := progress.NewBar(os.Stderr, "Backing up")
		defer bar.Finish()
		source = &progress.Source{Source: source, Bar: bar}
	}

	driver := &backup.Driver{
		Source:     source,
		Schedules:  s.schedules,
		Host:       s.host,
		Policy:     s.policy,
		User:       s.user,
		Dirs:       s.dirs,
		Excludes:   s.excludes,
		BackupDir:  s.backupDir,
		Algorithms: s.algorithms,
		Generator:  "backuptool",
		Dedup:      s.dedup,
		Log:        log,
	}

	tmpPath, err := reserveTempPath(s.backupDir, s.extension())
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	var result backup.Result
	err = config.WithUmask(0o277, func() error {
		var runErr error
		result, runErr = driver.Run(time.Now(), tmpPath)
		return runErr
	})
	if err != nil {
		return err
	}
	if !result.Created {
		log.Debug("nothing to archive")
		return nil
	}

	finalPath := s.path(result.Schedule)
	if err := os.Rename(result.ArchivePath, finalPath); err != nil {
		return fmt.Errorf("unable to rename %s to %s: %w", result.ArchivePath, finalPath, err)
	}
	if info, err := os.Stat(finalPath); err == nil {
		log.Info("created %s (%s)", finalPath, humanize.Bytes(uint64(info.Size())))
	} else {
		log.Info("created %s", finalPath)
	}
	if s.user != "" {
		chownToUser(log, finalPath, s.user)
	}

	idx, err := loadOrCreateIndex(s.backupDir)
	if err != nil {
		return err
	}
	if err := idx.AddArchives([]string{finalPath}, false); err != nil {
		return err
	}
	idx.Sort()
	return writeIndex(s.backupDir, idx)
}

// chownToUser best-effort changes path's owner to name's uid/gid, logging
// and continuing on failure rather than aborting the backup, matching
// original_source/src/archive/bt/create.py's chown helper.
func chownToUser(log *logging.Logger, path, name string) {
	u, err := user.Lookup(name)
	if err != nil {
		log.Warn(fmt.Errorf("user %s not found: %w", name, err))
		return
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		log.Warn(err)
		return
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		log.Warn(err)
		return
	}
	if err := os.Chown(path, uid, gid); err != nil {
		log.Warn(fmt.Errorf("chown %s: %w", path, err))
	}
}

// reserveTempPath returns a scratch path inside dir for the driver's
// exclusive-create archive write, named with a random UUID so concurrent runs never
// collide, and suffixed with ext so pkg/compress infers the same codec the
// final, schedule-named archive path will have. Reserving inside dir
// (rather than os.TempDir) keeps the final os.Rename on the same
// filesystem.
func reserveTempPath(dir, ext string) (string, error) {
	return filepath.Join(dir, fmt.Sprintf(".backuptool-%s%s", uuid.New().String(), ext)), nil
}

var createCommand = &cobra.Command{
	Use:   "create",
	Short: "Create a backup",
	Args:  cobra.NoArgs,
	RunE:  createMain,
}

func init() {
	flags := createCommand.Flags()
	flags.StringVar(&createConfiguration.policy, "policy", "sys", "backup policy name")
	flags.StringVar(&createConfiguration.user, "user", "", "back up this user's policy instead of --policy")
	flags.BoolVarP(&createConfiguration.verbose, "verbose", "v", false, "verbose diagnostic output")
}
