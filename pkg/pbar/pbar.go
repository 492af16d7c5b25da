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
package pbar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const MinRefreshRate = time.Millisecond * 500

// ProgressBar renders the number of signatures searched so far.
type ProgressBar struct {
	mu sync.Mutex

	w              io.Writer
	Total          int
	Done           int
	StartTime      time.Time
	LastUpdateTime time.Time
}

func New(w io.Writer, total int) *ProgressBar {
	return &ProgressBar{
		w:         w,
		Total:     total,
		StartTime: time.Now(),
	}
}

// Update records progress and redraws the bar at most once per MinRefreshRate.
func (pb *ProgressBar) Update(done int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.Done = done
	pb.render(done == pb.Total)
}

func (pb *ProgressBar) render(force bool) {
	if !force && !pb.LastUpdateTime.IsZero() && time.Since(pb.LastUpdateTime) < MinRefreshRate {
		return
	}
	pb.LastUpdateTime = time.Now()

	percentage := 100.0
	if pb.Total > 0 {
		percentage = float64(pb.Done) / float64(pb.Total) * 100
	}

	barLength := 20
	filledLen := int(float64(barLength) * percentage / 100)
	var bar string
	if filledLen >= barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filledLen) + ">" + strings.Repeat(" ", barLength-filledLen-1)
	}

	elapsed := time.Since(pb.StartTime)
	rate := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(pb.Done) / s
	}

	// \r moves the cursor to the beginning of the line; trailing spaces clear
	// leftovers of a previous longer line.
	fmt.Fprintf(pb.w, "\r[INFO] Progress: [%s] %3.0f%% (%d/%d signatures) | @ %.1f sig/s    ",
		bar,
		percentage,
		pb.Done,
		pb.Total,
		rate,
	)
}

func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.render(true)
	fmt.Fprintln(pb.w)
}
