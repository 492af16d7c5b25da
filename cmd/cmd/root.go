package cmd

import (
	"github.com/ostafen/findcrypt/internal/env"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - find cryptographic constants in binaries",
	}

	rootCmd.AddCommand(DefineScanCommand())
	rootCmd.AddCommand(DefineSigsCommand())
	rootCmd.AddCommand(DefineReportCommand())

	return rootCmd
}

func Execute() error {
	return NewRootCommand().Execute()
}
