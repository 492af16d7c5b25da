package app

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/ostafen/findcrypt/pkg/report"
	fmtutil "github.com/ostafen/findcrypt/pkg/util/format"
)

const patternPreviewSize = 16

// ListSignatures prints a table of the signatures stored in the database at path.
func ListSignatures(out io.Writer, path string, strict bool, log *slog.Logger) error {
	db, err := LoadDatabase(path, strict, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSIZE\tPATTERN")

	for i, sig := range db.All() {
		preview := hex.EncodeToString(sig.Pattern[:min(len(sig.Pattern), patternPreviewSize)])
		if len(sig.Pattern) > patternPreviewSize {
			preview += "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, sig.Name, fmtutil.FormatBytes(int64(len(sig.Pattern))), preview)
	}
	return w.Flush()
}

// ShowReport prints a table of the matches stored in the XML report at path.
func ShowReport(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open report file %q: %w", path, err)
	}
	defer f.Close()

	matches, err := report.ReadMatches(f)
	if err != nil {
		return fmt.Errorf("failed to read report file %q: %w", path, err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tOFFSET\tLENGTH")
	for _, m := range matches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Index, m.Name, m.Offset, fmtutil.FormatBytes(int64(m.Length)))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%d matches.\n", len(matches))
	return err
}
