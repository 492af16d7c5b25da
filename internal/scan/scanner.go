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
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ostafen/findcrypt/internal/sigdb"
)

var ErrNoTarget = errors.New("no target to scan")

// Target is a byte-addressable image that can be searched for exact byte sequences.
type Target interface {
	// MinOffset returns the address where the scan range starts.
	MinOffset() uint64
	// Find returns the address of the first occurrence of pattern at or after start.
	Find(start uint64, pattern []byte) (uint64, bool, error)
}

// MatchResult is the first occurrence of a signature within a target.
type MatchResult struct {
	Name   string // Name of the matched signature
	Offset uint64 // Absolute address of the match
	Length int    // Length of the pattern in bytes
	Index  int    // Position of the signature in the database
}

type Report struct {
	Matches  []MatchResult // Matches in database order
	Hits     int
	Scanned  int // Number of signatures searched before the scan ended
	Total    int
	Canceled bool
	Duration time.Duration
}

type Scanner struct {
	db       *sigdb.Database
	logger   *slog.Logger
	workers  int
	progress func(done, total int)
}

type Option func(*Scanner)

func WithLogger(logger *slog.Logger) Option {
	return func(sc *Scanner) { sc.logger = logger }
}

// WithWorkers searches up to n signatures concurrently.
func WithWorkers(n int) Option {
	return func(sc *Scanner) { sc.workers = max(n, 1) }
}

// WithProgress registers a callback invoked after each searched signature.
func WithProgress(fn func(done, total int)) Option {
	return func(sc *Scanner) { sc.progress = fn }
}

func New(db *sigdb.Database, opts ...Option) *Scanner {
	sc := &Scanner{
		db:      db,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: 1,
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Scan searches the target for the first occurrence of every signature.
// Cancellation of ctx is checked before each signature and is not an error:
// the matches found so far are returned with Canceled set.
func (sc *Scanner) Scan(ctx context.Context, t Target) (Report, error) {
	if t == nil {
		return Report{}, ErrNoTarget
	}

	start := time.Now()

	var (
		report Report
		err    error
	)
	if sc.workers > 1 {
		report, err = sc.scanParallel(ctx, t)
	} else {
		report, err = sc.scanSequential(ctx, t)
	}
	report.Total = sc.db.Len()
	report.Hits = len(report.Matches)
	report.Duration = time.Since(start)

	sc.logger.Info("scan finished",
		"signatures", report.Total,
		"scanned", report.Scanned,
		"hits", report.Hits,
		"canceled", report.Canceled,
		"duration", report.Duration,
	)
	return report, err
}

func (sc *Scanner) scanSequential(ctx context.Context, t Target) (Report, error) {
	var report Report

	for i, sig := range sc.db.All() {
		if ctx.Err() != nil {
			sc.logger.Warn("scan canceled", "at", i, "name", sig.Name)
			report.Canceled = true
			break
		}

		m, found, err := sc.search(t, i, sig)
		if err != nil {
			return report, err
		}
		report.Scanned++

		if found {
			report.Matches = append(report.Matches, m)
		}
		sc.notify(report.Scanned)
	}
	return report, nil
}

func (sc *Scanner) scanParallel(ctx context.Context, t Target) (Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := sc.db.Len()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		scanned  atomic.Int64
		canceled atomic.Bool
		firstErr error
	)

	results := make([]*MatchResult, n)
	jobs := make(chan int)

	for range min(sc.workers, n) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}

				m, found, err := sc.search(t, i, sc.db.At(i))
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					cancel()
					continue
				}
				if found {
					results[i] = &m
				}

				done := scanned.Add(1)
				mu.Lock()
				sc.notify(int(done))
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			canceled.Store(true)
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report := Report{Scanned: int(scanned.Load())}
	for _, m := range results {
		if m != nil {
			report.Matches = append(report.Matches, *m)
		}
	}

	if firstErr != nil {
		return report, firstErr
	}
	// Workers skip queued signatures once ctx is done; any gap means the caller canceled.
	report.Canceled = canceled.Load() || report.Scanned < n
	if report.Canceled {
		sc.logger.Warn("scan canceled", "scanned", report.Scanned, "total", n)
	}
	return report, nil
}

func (sc *Scanner) search(t Target, i int, sig sigdb.Signature) (MatchResult, bool, error) {
	off, found, err := t.Find(t.MinOffset(), sig.Pattern)
	if err != nil {
		return MatchResult{}, false, fmt.Errorf("failed to search signature %q: %w", sig.Name, err)
	}
	if !found {
		sc.logger.Debug("signature not found", "name", sig.Name)
		return MatchResult{}, false, nil
	}

	sc.logger.Debug("signature found", "name", sig.Name, "offset", off)

	return MatchResult{
		Name:   sig.Name,
		Offset: off,
		Length: len(sig.Pattern),
		Index:  i,
	}, true, nil
}

func (sc *Scanner) notify(done int) {
	if sc.progress != nil {
		sc.progress(done, sc.db.Len())
	}
}
