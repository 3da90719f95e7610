// Package cmd contains the crabgen CLI commands.
package cmd

import (
	"github.com/cms-top/crabgen/cmd/generate"
	"github.com/cms-top/crabgen/cmd/ledger"
	"github.com/cms-top/crabgen/cmd/parent"
	"github.com/cms-top/crabgen/cmd/version"
	"github.com/spf13/cobra"
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "crabgen",
	Short:         "Generate CRAB submission configs for NanoAOD production.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.AddCommand(completionCmd)
	RootCmd.AddCommand(newConfigCommand())
	RootCmd.AddCommand(generate.NewCommand())
	RootCmd.AddCommand(ledger.NewCommand())
	RootCmd.AddCommand(parent.NewCommand())
	RootCmd.AddCommand(version.Cmd)
}
