package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/omicsforge/gdcfetch/pkg/manifest"
	"github.com/omicsforge/gdcfetch/pkg/runlog"
	"github.com/omicsforge/gdcfetch/pkg/verify"
)

// Options configures one transfer run.
type Options struct {
	ManifestPath string
	OutDir       string
	LogDir       string
	Threads      int           // forwarded to gdc-client -n
	ClientPath   string        // gdc-client executable name or full path
	TokenFile    string        // optional token for controlled-access files
	PollInterval time.Duration // progress refresh cadence, clamped to >= 1s
	VerifyAfter  bool
	FailOnVerify bool
	Progress     io.Writer // live progress destination; defaults to stdout
}

// LaunchError means the child process could never be created (missing or
// non-runnable executable). Callers branch on it with errors.As to tell
// "never ran" from "ran and exited nonzero".
type LaunchError struct {
	Client string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Client, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Result is the aggregate outcome of one run. ExitCode is the child's
// own code, propagated unchanged; Verify is nil unless verification ran.
type Result struct {
	Total       int
	InitialDone int
	FinalDone   int
	ExitCode    int
	LogPath     string
	ReportPath  string
	Verify      *verify.Summary
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Runner drives one gdc-client invocation: directory setup, spawn,
// concurrent output drain + progress polling, exit-code handling, and
// the optional post-run verification pass.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// NewRunner returns a Runner for the given options.
func NewRunner(opts Options, logger *slog.Logger) *Runner {
	if opts.ClientPath == "" {
		opts.ClientPath = "gdc-client"
	}
	if opts.Threads <= 0 {
		opts.Threads = 8
	}
	if opts.Progress == nil {
		opts.Progress = os.Stdout
	}
	return &Runner{opts: opts, logger: logger}
}

// Command returns the argv this runner will launch.
func (r *Runner) Command() []string {
	cmd := []string{
		r.opts.ClientPath,
		"download",
		"-m", r.opts.ManifestPath,
		"-d", r.opts.OutDir,
		"-n", strconv.Itoa(r.opts.Threads),
	}
	if r.opts.TokenFile != "" {
		cmd = append(cmd, "-t", r.opts.TokenFile)
	}
	return cmd
}

// Run executes the full run. Configuration problems (unreadable manifest,
// zero rows) fail before any process is spawned; a spawn failure comes
// back as *LaunchError. A nonzero child exit is not an error here: it is
// reported through Result.ExitCode so the caller can propagate it.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(r.opts.OutDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.MkdirAll(r.opts.LogDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	parsed, err := manifest.Read(r.opts.ManifestPath)
	if err != nil {
		return nil, err
	}
	if parsed.Skipped > 0 {
		r.logger.Warn("dropped malformed manifest rows", "count", parsed.Skipped)
	}
	if parsed.Duplicates > 0 {
		r.logger.Warn("dropped duplicate manifest ids", "count", parsed.Duplicates)
	}
	rows := parsed.Rows
	if len(rows) == 0 {
		return nil, errors.New("manifest has 0 rows, nothing to download")
	}

	ts := runlog.Timestamp()
	logPath := filepath.Join(r.opts.LogDir, fmt.Sprintf("gdc_download_%s.log", ts))
	logw, err := runlog.New(logPath)
	if err != nil {
		return nil, err
	}
	defer logw.Close()

	argv := r.Command()
	params := map[string]string{
		"MANIFEST":   r.opts.ManifestPath,
		"OUT_DIR":    r.opts.OutDir,
		"THREADS":    strconv.Itoa(r.opts.Threads),
		"TOKEN_FILE": r.opts.TokenFile,
	}
	if err := logw.Header(argv, params, []string{"MANIFEST", "OUT_DIR", "THREADS", "TOKEN_FILE"}); err != nil {
		return nil, err
	}

	result := &Result{
		Total:       len(rows),
		InitialDone: manifest.CountCompleted(rows, r.opts.OutDir),
		LogPath:     logPath,
		StartedAt:   time.Now(),
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	// One combined stream: gdc-client interleaves progress and error text
	// across stdout and stderr, and separating them would lose ordering.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &LaunchError{Client: r.opts.ClientPath, Err: err}
	}
	// Parent's copy of the write end must close so the drain sees EOF
	// once the child exits.
	pw.Close()

	r.logger.Info("transfer started",
		"total", result.Total,
		"already_complete", result.InitialDone,
		"threads", r.opts.Threads,
		"log", logPath)

	mon := newMonitor(rows, r.opts.OutDir, result.InitialDone, r.opts.PollInterval, r.opts.Progress)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		mon.Drain(pr, logw, r.logger)
	}()

	exited := make(chan struct{})
	var waitErr error
	go func() {
		defer close(exited)
		waitErr = cmd.Wait()
	}()

	result.FinalDone = mon.Poll(exited)
	<-drained
	pr.Close()
	result.FinishedAt = time.Now()

	result.ExitCode = exitCode(waitErr)
	if result.ExitCode != 0 {
		if err := logw.ChildError(result.ExitCode); err != nil {
			r.logger.Warn("failed to record child exit in run log", "error", err)
		}
		// Verification of an incomplete transfer is not a meaningful
		// pass/fail gate; the operator can run `gdcfetch verify` by hand.
		return result, nil
	}

	if r.opts.VerifyAfter {
		result.ReportPath = filepath.Join(r.opts.LogDir, fmt.Sprintf("download_verify_%s.csv", ts))
		summary, err := verify.Run(rows, r.opts.OutDir, result.ReportPath)
		if err != nil {
			return result, err
		}
		result.Verify = &summary
		if err := logw.VerifySummary(summary, result.ReportPath); err != nil {
			r.logger.Warn("failed to record verification in run log", "error", err)
		}
	}

	return result, nil
}

// exitCode maps cmd.Wait's error to the child's exit code.
func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	// Wait failed for a non-exit reason (e.g. killed before start
	// completed); surface it as a generic failure code.
	return 1
}
