package report

import (
	"fmt"
	"io"

	"github.com/ostafen/findcrypt/internal/scan"
)

type ConsoleOptions struct {
	// AlwaysSummarize prints the summary line for a single hit as well.
	// By default it is only printed when more than one signature matched.
	AlwaysSummarize bool
}

// Console writes one line per match and a final summary.
type Console struct {
	w    io.Writer
	opts ConsoleOptions
}

func NewConsole(w io.Writer, opts ConsoleOptions) *Console {
	return &Console{w: w, opts: opts}
}

func (c *Console) Match(m scan.MatchResult) error {
	_, err := fmt.Fprintf(c.w, "Found %s: 0x%08X\n", m.Name, m.Offset)
	return err
}

func (c *Console) Summary(hits int) error {
	threshold := 1
	if c.opts.AlwaysSummarize {
		threshold = 0
	}
	if hits <= threshold {
		return nil
	}
	_, err := fmt.Fprintf(c.w, "A total of %d signatures have been found.\n", hits)
	return err
}

// Write emits every match of r followed by the summary.
func (c *Console) Write(r scan.Report) error {
	for _, m := range r.Matches {
		if err := c.Match(m); err != nil {
			return err
		}
	}
	return c.Summary(r.Hits)
}
