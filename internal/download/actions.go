package download

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/omicsforge/gdcfetch/models"
	"github.com/omicsforge/gdcfetch/pkg/db"
	"github.com/urfave/cli/v2"
)

// Exit codes for the download command. The child's own nonzero exit
// code is propagated unchanged; these two are gdcfetch's own.
const (
	ExitUsage  = 1 // configuration, manifest, or launch problems
	ExitVerify = 2 // verification found problems and --fail-on-verify was set
)

// Action implements `gdcfetch download`.
func Action(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	config, err := models.LoadConfig(c.String("config"), c.IsSet("config"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsage)
	}

	opts := optionsFrom(c, config)
	if opts.ManifestPath == "" {
		return cli.Exit("missing required flag: --manifest", ExitUsage)
	}
	if opts.OutDir == "" || opts.LogDir == "" {
		return cli.Exit("missing required flags: --out-dir and --log-dir", ExitUsage)
	}

	runner := NewRunner(opts, logger)
	result, err := runner.Run(c.Context)
	if err != nil {
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			// The child never ran; nothing was transferred.
			return cli.Exit(launchErr.Error(), ExitUsage)
		}
		return cli.Exit(err.Error(), ExitUsage)
	}

	recordRun(logger, opts, result)

	if result.ExitCode != 0 {
		return cli.Exit(fmt.Sprintf("gdc-client exited with code %d (see %s)", result.ExitCode, result.LogPath), result.ExitCode)
	}

	if result.Verify != nil {
		fmt.Printf("[VERIFY] %s\n[VERIFY] Report: %s\n", result.Verify, result.ReportPath)
		if !result.Verify.Clean() && opts.FailOnVerify {
			return cli.Exit(fmt.Sprintf("verification found problems: %s", result.Verify), ExitVerify)
		}
	}

	logger.Info("transfer finished",
		"done", result.FinalDone,
		"total", result.Total,
		"elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Second).String(),
		"log", result.LogPath)
	return nil
}

// optionsFrom merges CLI flags over YAML config defaults.
func optionsFrom(c *cli.Context, config *models.Config) Options {
	opts := Options{
		ManifestPath: c.String("manifest"),
		OutDir:       c.String("out-dir"),
		LogDir:       c.String("log-dir"),
		Threads:      c.Int("threads"),
		ClientPath:   c.String("gdc-client"),
		TokenFile:    c.String("token-file"),
		PollInterval: time.Duration(c.Int("progress-every")) * time.Second,
		VerifyAfter:  c.Bool("verify-after"),
		FailOnVerify: c.Bool("fail-on-verify"),
	}
	if opts.OutDir == "" {
		opts.OutDir = config.OutDir
	}
	if opts.LogDir == "" {
		opts.LogDir = config.LogDir
	}
	if !c.IsSet("threads") && config.Threads > 0 {
		opts.Threads = config.Threads
	}
	if !c.IsSet("gdc-client") && config.GDCClient != "" {
		opts.ClientPath = config.GDCClient
	}
	if !c.IsSet("progress-every") && config.ProgressEvery > 0 {
		opts.PollInterval = time.Duration(config.ProgressEvery) * time.Second
	}
	return opts
}

// recordRun writes the invocation into the run-history ledger. Ledger
// problems are warnings: the transfer already happened and its durable
// log exists regardless.
func recordRun(logger *slog.Logger, opts Options, result *Result) {
	database, err := db.Open()
	if err != nil {
		logger.Warn("failed to open run ledger", "error", err)
		return
	}
	defer database.Close()

	run := db.Run{
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
		ManifestPath: opts.ManifestPath,
		OutDir:       opts.OutDir,
		LogPath:      result.LogPath,
		TotalRows:    result.Total,
		InitialDone:  result.InitialDone,
		FinalDone:    result.FinalDone,
		ExitCode:     result.ExitCode,
	}
	if result.Verify != nil {
		run.Verified = true
		run.VerifyOK = result.Verify.OK
		run.VerifyMissing = result.Verify.Missing
		run.VerifyEmpty = result.Verify.Empty
		run.ReportPath = result.ReportPath
	}

	if _, err := database.RecordRun(run); err != nil {
		logger.Warn("failed to record run in ledger", "error", err)
	}
}
