// Command archivetool operates directly on one archive or archive index
// file: create, verify, diff, find, ls, index. See
// original_source/archive/cli and original_source/src/archive/cli for the
// subcommand set this mirrors.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCode carries a non-error, non-zero status out of a subcommand's RunE
// (the 100/101/102 diff-severity codes, which are success paths, not
// errors).
var exitCode int

// UsageError marks an invalid invocation (bad flags, bad argument count),
// mapped to exit code 2.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return e.Reason }

var rootCommand = &cobra.Command{
	Use:   "archivetool",
	Short: "Create, inspect, and compare content-aware archives",
}

func init() {
	cobra.EnableCommandSorting = false
	rootCommand.AddCommand(
		createCommand,
		verifyCommand,
		diffCommand,
		findCommand,
		lsCommand,
		indexCommand,
	)
}

func classify(err error) int {
	switch err.(type) {
	case *UsageError:
		return 2
	default:
		if isIntegrityError(err) {
			return 3
		}
		return 1
	}
}

func main() {
	rootCommand.SilenceUsage = true
	rootCommand.SilenceErrors = true
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(classify(err))
	}
	os.Exit(exitCode)
}
