// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"log/slog"
	"os"

	"github.com/ostafen/findcrypt/internal/app"
	"github.com/spf13/cobra"
)

func DefineSigsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sigs",
		Short: "List the signatures of the database",
		Long: `The 'sigs' command loads the signature database and displays a table of its entries.
Each entry includes its name, the size of its pattern and the first bytes of the pattern in hex.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         RunSigs,
	}

	addDatabaseFlags(cmd)
	return cmd
}

func RunSigs(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	strict, _ := cmd.Flags().GetBool("strict")

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return app.ListSignatures(cmd.OutOrStdout(), dbPath, strict, log)
}
