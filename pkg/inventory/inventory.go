// Package inventory audits a download root: how many files landed, what
// extensions they have, and a few example paths. It is a read-only
// operator aid, independent of any manifest.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/omicsforge/gdcfetch/pkg/storage"
)

var store storage.Storage

// ExtCount is one extension histogram bucket.
type ExtCount struct {
	Ext   string
	Count int
}

// Report summarizes one scan of a download root.
type Report struct {
	Timestamp   time.Time
	Root        string
	Exists      bool
	TotalFiles  int
	ExtCounts   []ExtCount // descending by count
	TSVCount    int
	TSVExamples []string
}

// Scan walks root and builds a report. maxExamples caps how many .tsv
// paths are listed (they are the most common payload for RNA-seq runs).
func Scan(root string, maxExamples int) (*Report, error) {
	report := &Report{Timestamp: time.Now(), Root: root}

	if _, err := store.GetFileStats(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, nil
		}
		return nil, err
	}
	report.Exists = true

	counts := make(map[string]int)
	var tsvPaths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		report.TotalFiles++

		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" {
			ext = "<no_ext>"
		}
		counts[ext]++

		if ext == ".tsv" {
			tsvPaths = append(tsvPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	for ext, n := range counts {
		report.ExtCounts = append(report.ExtCounts, ExtCount{Ext: ext, Count: n})
	}
	sort.Slice(report.ExtCounts, func(i, j int) bool {
		if report.ExtCounts[i].Count != report.ExtCounts[j].Count {
			return report.ExtCounts[i].Count > report.ExtCounts[j].Count
		}
		return report.ExtCounts[i].Ext < report.ExtCounts[j].Ext
	})

	sort.Strings(tsvPaths)
	report.TSVCount = len(tsvPaths)
	if maxExamples < 0 {
		maxExamples = 0
	}
	if len(tsvPaths) > maxExamples {
		tsvPaths = tsvPaths[:maxExamples]
	}
	report.TSVExamples = tsvPaths

	return report, nil
}

// Render formats the report as the KEY: value text block written to disk.
func (r *Report) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TIMESTAMP: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "ROOT: %s\n", r.Root)
	fmt.Fprintf(&sb, "EXISTS: %t\n", r.Exists)

	if !r.Exists {
		return sb.String()
	}

	fmt.Fprintf(&sb, "TOTAL_FILES: %d\n", r.TotalFiles)
	sb.WriteString("EXT_COUNTS:\n")
	for _, ec := range r.ExtCounts {
		fmt.Fprintf(&sb, "  %s: %d\n", ec.Ext, ec.Count)
	}
	fmt.Fprintf(&sb, "TSV_COUNT: %d\n", r.TSVCount)
	if len(r.TSVExamples) > 0 {
		sb.WriteString("TSV_EXAMPLES:\n")
		for _, p := range r.TSVExamples {
			fmt.Fprintf(&sb, "  %s\n", p)
		}
	}
	return sb.String()
}

// WriteTo writes the rendered report to path, creating directories.
func (r *Report) WriteTo(path string) error {
	if err := store.SaveFile(path, []byte(r.Render())); err != nil {
		return fmt.Errorf("failed to write inventory report: %w", err)
	}
	return nil
}
