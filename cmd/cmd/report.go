package cmd

import (
	"github.com/ostafen/findcrypt/internal/app"
	"github.com/spf13/cobra"
)

func DefineReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <report.xml>",
		Short: "Display the matches of a saved scan report",
		Long: `The 'report' command reads an XML report written by 'scan --output' and lists its matches.
Each row includes the signature index, its name, the offset of the match and the pattern length.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowReport(cmd.OutOrStdout(), args[0])
		},
	}
}
