// Package cmd holds the tradepost command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Injected at build time using ldflags.
	version = ""
	commit  = ""
)

// NewRootCommand creates the `tradepost` command and its children.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "tradepost [command]",
		Version:               versionInfo(),
		DisableFlagsInUseLine: true,
		Short:                 "TradePost barter marketplace",
		SilenceErrors:         true,
		SilenceUsage:          true,
	}

	cmd.AddCommand(NewServeCommand(NewServeOptions()))
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}

func versionInfo() string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s (commit: %s)", version, commit)
}
