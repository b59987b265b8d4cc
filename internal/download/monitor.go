package download

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/omicsforge/gdcfetch/internal/common"
	"github.com/omicsforge/gdcfetch/pkg/manifest"
	"github.com/omicsforge/gdcfetch/pkg/runlog"
)

const (
	minPollInterval = time.Second
	tailMaxLen      = 120
	maxDrainLine    = 1 << 20
)

// tailKeywords marks child output lines worth echoing into the live
// progress display. Matches gdc-client's own vocabulary.
var tailKeywords = []string{"download", "error", "retry", "complete", "saved", "skipping"}

// lastLine is the one value shared between the drain goroutine and the
// poll loop: the most recent line of child output. Last write wins;
// intermediate lines may never be displayed, which is fine, because the
// run log already has all of them.
type lastLine struct {
	mu   sync.Mutex
	text string
}

func (l *lastLine) set(s string) {
	l.mu.Lock()
	l.text = s
	l.mu.Unlock()
}

func (l *lastLine) get() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Monitor observes a running transfer from two independent vantage
// points: a goroutine draining the child's combined output into the run
// log, and a foreground loop recomputing on-disk completion on a fixed
// cadence. The two never need to agree on timing.
type Monitor struct {
	rows        []manifest.Row
	outDir      string
	total       int
	initialDone int
	interval    time.Duration
	start       time.Time
	out         io.Writer
	last        lastLine
}

func newMonitor(rows []manifest.Row, outDir string, initialDone int, interval time.Duration, out io.Writer) *Monitor {
	if interval < minPollInterval {
		interval = minPollInterval
	}
	return &Monitor{
		rows:        rows,
		outDir:      outDir,
		total:       len(rows),
		initialDone: initialDone,
		interval:    interval,
		start:       time.Now(),
		out:         out,
	}
}

// Drain copies child output line-by-line into the run log and updates
// the shared last-line cell. The log write happens before the cell
// update: the durable record must never lose a line, the live display
// may. Blocks until the stream reaches EOF.
//
// Lines split on '\n' and on bare '\r': gdc-client redraws its own
// progress with carriage returns and no newline, so a newline-only
// split would buffer its whole run as one line. Lines longer than
// maxDrainLine are flushed in chunks; the stream is always read to EOF
// so the child never blocks on a full pipe.
func (m *Monitor) Drain(r io.Reader, log *runlog.Writer, logger *slog.Logger) {
	br := bufio.NewReaderSize(r, 64*1024)
	buf := make([]byte, 0, 4096)

	emit := func() {
		line := string(buf)
		buf = buf[:0]
		if err := log.Line(line); err != nil {
			logger.Warn("failed to write child output to run log", "error", err)
		}
		m.last.set(strings.TrimSpace(line))
	}

	var prev byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if len(buf) > 0 {
				emit()
			}
			if err != io.EOF {
				logger.Warn("child output stream ended abnormally", "error", err)
			}
			return
		}
		switch b {
		case '\n':
			// The '\n' of a "\r\n" pair was already emitted at the '\r'.
			if prev != '\r' {
				emit()
			}
		case '\r':
			emit()
		default:
			buf = append(buf, b)
			if len(buf) >= maxDrainLine {
				emit()
			}
		}
		prev = b
	}
}

// Poll renders the self-overwriting progress line until the child's exit
// status arrives, then performs one final recomputation and returns the
// final completion count. It never wakes faster than the configured
// interval.
func (m *Monitor) Poll(exited <-chan struct{}) int {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		done := m.renderOnce()
		select {
		case <-exited:
			done = m.renderOnce()
			fmt.Fprintln(m.out)
			return done
		case <-ticker.C:
		}
	}
}

// renderOnce recomputes completion from disk and redraws the status line.
func (m *Monitor) renderOnce() int {
	done := manifest.CountCompleted(m.rows, m.outDir)
	fmt.Fprint(m.out, "\r"+m.statusLine(done, time.Since(m.start), m.last.get()))
	return done
}

// statusLine formats one progress line. The tail excerpt only appears
// when the most recent child line matches a known keyword.
func (m *Monitor) statusLine(done int, elapsed time.Duration, tail string) string {
	pct := 0.0
	if m.total > 0 {
		pct = float64(done) / float64(m.total) * 100.0
	}
	line := fmt.Sprintf("Progress: %d/%d (%5.1f%%) | elapsed %s | resumed_from %d",
		done, m.total, pct, common.FormatElapsed(elapsed), m.initialDone)
	if excerpt := tailExcerpt(tail); excerpt != "" {
		line += " | last: " + excerpt
	}
	return line
}

// tailExcerpt returns a truncated copy of tail if it looks significant,
// or "" to keep the status line quiet.
func tailExcerpt(tail string) string {
	if tail == "" {
		return ""
	}
	lower := strings.ToLower(tail)
	for _, kw := range tailKeywords {
		if strings.Contains(lower, kw) {
			return common.Truncate(tail, tailMaxLen)
		}
	}
	return ""
}
