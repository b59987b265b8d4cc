// Package manifest reads and interrogates GDC transfer manifests.
//
// A manifest is a TSV whose header is exactly "id<TAB>filename"; every
// data line names one file the transfer client must place at
// <out_dir>/<id>/<filename>. Completion is never tracked anywhere else:
// it is always recomputed from the filesystem, which is what makes an
// interrupted run resumable by simply running it again.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/omicsforge/gdcfetch/pkg/storage"
)

var store storage.Storage

// Row is one manifest entry: a GDC file UUID and its filename.
type Row struct {
	ID       string
	Filename string
}

// ReadResult carries the parsed rows plus parse-time bookkeeping.
type ReadResult struct {
	Rows       []Row
	Skipped    int // data lines with fewer than 2 tab-separated fields
	Duplicates int // ids seen more than once (first occurrence kept)
}

// Read parses a manifest file.
//
// The header must be exactly "id" and "filename" as the first two
// tab-separated columns. Data lines with fewer than two fields are
// skipped, not fatal. Duplicate ids are deduplicated by first
// occurrence. Extra columns beyond the first two are ignored.
func Read(path string) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read manifest header: %w", err)
		}
		return nil, fmt.Errorf("manifest %s is empty", path)
	}

	header := strings.Split(scanner.Text(), "\t")
	if len(header) < 2 || header[0] != "id" || header[1] != "filename" {
		return nil, fmt.Errorf("manifest header must be: id<tab>filename, got: %q", scanner.Text())
	}

	result := &ReadResult{}
	seen := make(map[string]bool)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 2 {
			result.Skipped++
			continue
		}
		if seen[parts[0]] {
			result.Duplicates++
			continue
		}
		seen[parts[0]] = true
		result.Rows = append(result.Rows, Row{ID: parts[0], Filename: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return result, nil
}

// ExpectedPath returns where the transfer client stores a file.
// gdc-client always nests one directory per file id: <out_dir>/<id>/<filename>.
// This layout is the client's choice; verification depends on matching it.
func ExpectedPath(outDir, id, filename string) string {
	return filepath.Join(outDir, id, filename)
}

// CountCompleted returns how many rows already have their expected path
// on disk. It is a pure filesystem recomputation, safe to call at any
// time, and calling it twice against an unchanged tree gives the same
// answer both times.
func CountCompleted(rows []Row, outDir string) int {
	done := 0
	for _, r := range rows {
		if store.HasFile(ExpectedPath(outDir, r.ID, r.Filename)) {
			done++
		}
	}
	return done
}

// Write writes rows as a manifest TSV with the standard header.
func Write(rows []Row, path string) error {
	var sb strings.Builder
	sb.WriteString("id\tfilename\n")
	for _, r := range rows {
		sb.WriteString(r.ID)
		sb.WriteByte('\t')
		sb.WriteString(r.Filename)
		sb.WriteByte('\n')
	}

	if err := store.SaveFile(path, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
