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
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ostafen/findcrypt/internal/env"
	"github.com/ostafen/findcrypt/internal/logger"
	"github.com/ostafen/findcrypt/internal/mmap"
	"github.com/ostafen/findcrypt/internal/scan"
	"github.com/ostafen/findcrypt/internal/sigdb"
	"github.com/ostafen/findcrypt/internal/target"
	"github.com/ostafen/findcrypt/pkg/pbar"
	"github.com/ostafen/findcrypt/pkg/report"
	fmtutil "github.com/ostafen/findcrypt/pkg/util/format"
)

type Mode string

const (
	ModeMmap   Mode = "mmap"
	ModeStream Mode = "stream"
)

type Options struct {
	DatabasePath    string
	Strict          bool
	Workers         int
	Mode            Mode
	Start           uint64
	MaxScanSize     uint64
	ScanBufferSize  uint64
	ReportFile      string
	LogFile         string
	LogLevel        slog.Level
	AlwaysSummarize bool
	DisableProgress bool
}

// DefaultDatabasePath returns the database location used when none is given.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "database.d3v"
	}
	return filepath.Join(home, "ghidra_scripts", "database.d3v")
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// LoadDatabase reads the signature database at path.
func LoadDatabase(path string, strict bool, log *slog.Logger) (*sigdb.Database, error) {
	src := sigdb.FileSource(path)
	db, err := src.Load(
		sigdb.WithStrictCompressionFlag(strict),
		sigdb.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load signature database %q: %w", src.Name(), err)
	}
	return db, nil
}

// Scan searches the image at imagePath for every signature of the database
// and reports the matches to out.
func Scan(ctx context.Context, out io.Writer, imagePath string, opts Options) error {
	console := logger.New(out, slog.LevelInfo)

	log, logFile, err := logger.SetupFile(opts.LogFile, opts.LogLevel)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	tgt, imageSize, closeTarget, err := openTarget(imagePath, opts)
	if errors.Is(err, scan.ErrNoTarget) {
		console.Warn("No program loaded, aborting.")
		return nil
	}
	if err != nil {
		return err
	}
	defer closeTarget()

	db, err := LoadDatabase(opts.DatabasePath, opts.Strict, log)
	if err != nil {
		return err
	}
	console.Infof("Loaded %d signatures.", db.Len())

	console.Info("Starting scanning operation...")
	console.Infof("Source: \t%s", absPath(imagePath))
	console.Infof("Database: \t%s", absPath(opts.DatabasePath))
	console.Infof("Range: \t%s (%s)", report.FormatOffset(tgt.MinOffset()), fmtutil.FormatBytes(int64(imageSize)))

	start := time.Now()
	res, err := runScan(ctx, out, console, log, db, tgt, opts)
	if err != nil {
		return err
	}

	if opts.ReportFile != "" {
		if err := writeReport(opts.ReportFile, imagePath, imageSize, tgt.MinOffset(), opts.DatabasePath, db, res); err != nil {
			return err
		}
		console.Infof("Report saved to: \t%s", absPath(opts.ReportFile))
	}

	console.Infof("Duration: \t%s", fmtutil.FormatDurationHMS(time.Since(start)))
	return nil
}

// runScan scans tgt and prints the matches to out. On failure the matches
// found before the failing signature are printed as well.
func runScan(
	ctx context.Context,
	out io.Writer,
	console *logger.Logger,
	log *slog.Logger,
	db *sigdb.Database,
	tgt scan.Target,
	opts Options,
) (scan.Report, error) {
	scanOpts := []scan.Option{
		scan.WithLogger(log),
		scan.WithWorkers(opts.Workers),
	}

	var bar *pbar.ProgressBar
	if !opts.DisableProgress {
		bar = pbar.New(out, db.Len())
		scanOpts = append(scanOpts, scan.WithProgress(func(done, _ int) {
			bar.Update(done)
		}))
	}

	res, err := scan.New(db, scanOpts...).Scan(ctx, tgt)
	if bar != nil {
		bar.Finish()
	}

	sink := report.NewConsole(out, report.ConsoleOptions{AlwaysSummarize: opts.AlwaysSummarize})
	if err != nil {
		console.Errorf("Scan failed after %d of %d signatures: %s", res.Scanned, res.Total, err)
		if werr := sink.Write(res); werr != nil {
			return res, errors.Join(err, werr)
		}
		return res, err
	}

	if res.Canceled {
		console.Warnf("Scan canceled after %d of %d signatures.", res.Scanned, res.Total)
	}
	return res, sink.Write(res)
}

type searchTarget interface {
	scan.Target
	Size() uint64
}

func openTarget(path string, opts Options) (searchTarget, uint64, func() error, error) {
	switch opts.Mode {
	case ModeStream:
		return openStream(path, opts)
	case ModeMmap, "":
		return openMapped(path, opts)
	}
	return nil, 0, nil, fmt.Errorf("unknown scan mode %q", opts.Mode)
}

func openMapped(path string, opts Options) (searchTarget, uint64, func() error, error) {
	m, err := target.Mmap(path)
	if errors.Is(err, mmap.ErrEmpty) {
		return nil, 0, nil, scan.ErrNoTarget
	}
	if err != nil {
		return nil, 0, nil, err
	}

	t := m.Memory
	if opts.Start > 0 || opts.MaxScanSize > 0 {
		t = t.Slice(opts.Start, opts.MaxScanSize)
	}
	if t.Size() == 0 {
		m.Close()
		return nil, 0, nil, scan.ErrNoTarget
	}
	return t, t.Size(), m.Close, nil
}

func openStream(path string, opts Options) (searchTarget, uint64, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to open image file %q: %w", path, err)
	}

	finfo, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, err
	}

	fileSize := uint64(finfo.Size())
	if opts.Start >= fileSize {
		f.Close()
		return nil, 0, nil, scan.ErrNoTarget
	}

	size := fileSize - opts.Start
	if opts.MaxScanSize > 0 {
		size = min(size, opts.MaxScanSize)
	}
	return target.ReaderAt(f, opts.Start, size, int(opts.ScanBufferSize)), size, f.Close, nil
}

func writeReport(
	path string,
	imagePath string,
	imageSize uint64,
	minOffset uint64,
	dbPath string,
	db *sigdb.Database,
	res scan.Report,
) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %q: %w", path, err)
	}
	defer f.Close()

	w := report.NewXMLWriter(f)

	err = w.WriteHeader(report.Header{
		XmlOutput: report.XmlOutputVersion,
		Creator: report.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: report.GetExecEnv(),
		},
		Source: report.Source{
			ImageFilename: imagePath,
			ImageSize:     imageSize,
			MinOffset:     report.FormatOffset(minOffset),
		},
		Database: report.Database{
			Path:       dbPath,
			Signatures: db.Len(),
		},
	})
	if err != nil {
		return err
	}

	for _, m := range res.Matches {
		if err := w.WriteMatch(report.NewMatch(m)); err != nil {
			return err
		}
	}
	if err := w.WriteSummary(report.NewSummary(res)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}
