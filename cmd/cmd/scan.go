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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ostafen/findcrypt/internal/app"
	"github.com/ostafen/findcrypt/internal/logger"
	"github.com/ostafen/findcrypt/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <binary>",
		Short: "Scan a binary for known cryptographic constants",
		Long: `The 'scan' command loads the signature database and searches the given binary for every signature.
Only the first occurrence of each signature is reported, together with its offset in the binary.
The scan can be interrupted at any time with Ctrl+C: the signatures matched so far are still reported.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunScan,
	}

	addDatabaseFlags(cmd)
	cmd.Flags().Int("workers", 1, "number of signatures searched concurrently")
	cmd.Flags().String("mode", string(app.ModeMmap), "how the binary is accessed: mmap or stream")
	cmd.Flags().String("start", "0", "offset where the scan starts")
	cmd.Flags().String("max-scan-size", "", "max number of bytes to scan")
	cmd.Flags().String("scan-buffer-size", "4MB", "the size of the read window in stream mode")
	cmd.Flags().StringP("output", "o", "", "path of the XML report file")
	cmd.Flags().String("log-file", "", "write a detailed scan log to the specified file")
	cmd.Flags().String("log-level", "INFO", "minimum level of the scan log (DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().Bool("always-summary", false, "print the total even when a single signature matched")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func addDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("db", "d", app.DefaultDatabasePath(), "path of the signature database")
	cmd.Flags().Bool("strict", false, "reject entries with an unknown compression flag")
}

func RunScan(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Scan(ctx, cmd.OutOrStdout(), args[0], opts)
}

func parseOptions(cmd *cobra.Command) (app.Options, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	strict, _ := cmd.Flags().GetBool("strict")
	workers, _ := cmd.Flags().GetInt("workers")
	mode, _ := cmd.Flags().GetString("mode")
	outputFile, _ := cmd.Flags().GetString("output")
	logFile, _ := cmd.Flags().GetString("log-file")
	logLevel, _ := cmd.Flags().GetString("log-level")
	alwaysSummary, _ := cmd.Flags().GetBool("always-summary")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	start, err := getBytes(cmd, "start")
	if err != nil {
		return app.Options{}, err
	}
	maxScanSize, err := getBytes(cmd, "max-scan-size")
	if err != nil {
		return app.Options{}, err
	}
	scanBufferSize, err := getBytes(cmd, "scan-buffer-size")
	if err != nil {
		return app.Options{}, err
	}

	if workers < 1 {
		return app.Options{}, fmt.Errorf("workers must be greater than 0")
	}

	return app.Options{
		DatabasePath:    dbPath,
		Strict:          strict,
		Workers:         workers,
		Mode:            app.Mode(mode),
		Start:           start,
		MaxScanSize:     maxScanSize,
		ScanBufferSize:  scanBufferSize,
		ReportFile:      outputFile,
		LogFile:         logFile,
		LogLevel:        logger.ParseLevel(logLevel),
		AlwaysSummarize: alwaysSummary,
		DisableProgress: noProgress,
	}, nil
}

func getBytes(cmd *cobra.Command, name string) (uint64, error) {
	s, _ := cmd.Flags().GetString(name)

	v, err := format.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value for --%s: %w", name, err)
	}
	return v, nil
}
