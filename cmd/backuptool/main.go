// Command backuptool runs the scheduled differential backup driver against
// a configuration file, mirroring original_source/src/archive/bt/* and
// original_source/scripts/backup-tool.py.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// UsageError marks an invalid invocation (bad flags, conflicting options).
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return e.Reason }

var rootCommand = &cobra.Command{
	Use:   "backuptool",
	Short: "Run scheduled differential backups against a configuration file",
}

func init() {
	cobra.EnableCommandSorting = false
	rootCommand.AddCommand(createCommand, indexCommand)
}

func main() {
	rootCommand.SilenceUsage = true
	rootCommand.SilenceErrors = true
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
