// Package runlog writes the durable record of one transfer invocation:
// a header block with the launched command and its parameters, the
// verbatim interleaved output of the child process, and an optional
// trailing verification summary. One log file belongs to exactly one run.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/omicsforge/gdcfetch/pkg/verify"
)

// Writer appends to a single run's log file. Line is safe to call from
// the output-drain goroutine while the rest of the run proceeds; every
// write is flushed so the log survives a hard kill of the orchestrator.
type Writer struct {
	f    *os.File
	path string
}

// Timestamp returns the filename-safe timestamp used for log and report
// names, e.g. 20260831_152004.
func Timestamp() string {
	return time.Now().Format("20060102_150405")
}

// New creates the log file, creating parent directories as needed.
func New(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}
	return &Writer{f: f, path: path}, nil
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Header records the launched command and its parameters as the first
// block of the log. The [CMD] line always comes first.
func (w *Writer) Header(cmd []string, params map[string]string, order []string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[CMD] %s\n", strings.Join(cmd, " "))
	for _, key := range order {
		if v, ok := params[key]; ok && v != "" {
			fmt.Fprintf(&sb, "[%s] %s\n", key, v)
		}
	}
	sb.WriteString("\n")
	return w.write(sb.String())
}

// Line appends one line of child output verbatim.
func (w *Writer) Line(line string) error {
	return w.write(line + "\n")
}

// ChildError records a nonzero child exit.
func (w *Writer) ChildError(code int) error {
	return w.write(fmt.Sprintf("\n[ERROR] gdc-client exited with code %d\n", code))
}

// VerifySummary appends the trailing verification block.
func (w *Writer) VerifySummary(summary verify.Summary, reportPath string) error {
	return w.write(fmt.Sprintf("\n[VERIFY] %s\n[VERIFY] Report: %s\n", summary, reportPath))
}

func (w *Writer) write(s string) error {
	if _, err := w.f.WriteString(s); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	// Flush per write: losing live-display lines is acceptable, losing
	// log lines is not.
	return w.f.Sync()
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}
