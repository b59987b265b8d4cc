// Package verify audits a download tree against a manifest.
//
// Verification is read-only and idempotent: it never retries, never
// mutates the tree, and can be re-run at any time after (or independently
// of) a transfer run.
package verify

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/omicsforge/gdcfetch/pkg/manifest"
	"github.com/omicsforge/gdcfetch/pkg/storage"
)

var store storage.Storage

// Status classifies one expected file.
type Status string

const (
	StatusOK      Status = "OK"      // present with nonzero size
	StatusMissing Status = "MISSING" // expected path does not exist
	StatusEmpty   Status = "EMPTY"   // present but zero bytes (truncated transfer)
)

// Record is the verification outcome for one manifest row.
type Record struct {
	ID           string
	Filename     string
	ExpectedPath string
	Status       Status
	SizeBytes    int64
}

// Summary aggregates record counts for one verification pass.
type Summary struct {
	OK      int
	Missing int
	Empty   int
}

// String renders the summary in the run-log format.
func (s Summary) String() string {
	return fmt.Sprintf("OK=%d MISSING=%d EMPTY=%d", s.OK, s.Missing, s.Empty)
}

// Clean reports whether verification found no problems.
func (s Summary) Clean() bool {
	return s.Missing == 0 && s.Empty == 0
}

// Classify inspects one row's expected path.
func Classify(row manifest.Row, outDir string) Record {
	p := manifest.ExpectedPath(outDir, row.ID, row.Filename)
	rec := Record{ID: row.ID, Filename: row.Filename, ExpectedPath: p}

	stats, err := store.GetFileStats(p)
	if err != nil {
		rec.Status = StatusMissing
		return rec
	}

	rec.SizeBytes = stats.SizeBytes
	if stats.SizeBytes == 0 {
		rec.Status = StatusEmpty
		return rec
	}
	rec.Status = StatusOK
	return rec
}

// Run classifies every manifest row and writes a CSV report in manifest
// order. The report header is fixed: id, filename, expected_path, status,
// size_bytes. MISSING rows carry an empty size column.
func Run(rows []manifest.Row, outDir, reportPath string) (Summary, error) {
	if err := os.MkdirAll(filepath.Dir(reportPath), 0750); err != nil {
		return Summary{}, fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(reportPath)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create verification report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "filename", "expected_path", "status", "size_bytes"}); err != nil {
		return Summary{}, fmt.Errorf("failed to write report header: %w", err)
	}

	var summary Summary
	for _, row := range rows {
		rec := Classify(row, outDir)

		size := ""
		switch rec.Status {
		case StatusOK:
			summary.OK++
			size = strconv.FormatInt(rec.SizeBytes, 10)
		case StatusEmpty:
			summary.Empty++
			size = strconv.FormatInt(rec.SizeBytes, 10)
		case StatusMissing:
			summary.Missing++
		}

		if err := w.Write([]string{rec.ID, rec.Filename, rec.ExpectedPath, string(rec.Status), size}); err != nil {
			return summary, fmt.Errorf("failed to write report row for %s: %w", rec.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return summary, fmt.Errorf("failed to flush verification report: %w", err)
	}
	return summary, nil
}
