package main

import (
	"github.com/spf13/cobra"

	"github.com/archivetools/archivetools/pkg/archive"
)

func verifyMain(command *cobra.Command, arguments []string) error {
	a, err := archive.Open(arguments[0])
	if err != nil {
		return err
	}
	return a.Verify()
}

var verifyCommand = &cobra.Command{
	Use:   "verify <archive>",
	Short: "Verify integrity of the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  verifyMain,
}
