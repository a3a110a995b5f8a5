package archive

import (
	"fmt"
	"os"
)

// withWorkdir runs fn with the process working directory temporarily
// changed to dir, restoring the previous directory before returning.
//
// Changing the process-wide working directory is inherently unsafe in a
// concurrent program; Create and CreateFromEntries only change directory
// when the caller explicitly supplies CreateOptions.Workdir (an empty dir
// runs fn unchanged). Without a Workdir, relative paths given to them are
// resolved against the current working directory.
func withWorkdir(dir string, fn func() error) error {
	if dir == "" {
		return fn()
	}
	previous, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("unable to determine working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("unable to change to workdir %s: %w", dir, err)
	}
	defer os.Chdir(previous)
	return fn()
}
