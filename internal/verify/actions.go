package verify

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/omicsforge/gdcfetch/pkg/manifest"
	"github.com/omicsforge/gdcfetch/pkg/runlog"
	verifypkg "github.com/omicsforge/gdcfetch/pkg/verify"
	"github.com/urfave/cli/v2"
)

// Action implements `gdcfetch verify`: a standalone, read-only audit of
// a download tree against a manifest. Safe to run at any time, including
// against a tree a transfer is still filling in.
func Action(c *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	parsed, err := manifest.Read(c.String("manifest"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if parsed.Skipped > 0 {
		logger.Warn("dropped malformed manifest rows", "count", parsed.Skipped)
	}
	if parsed.Duplicates > 0 {
		logger.Warn("dropped duplicate manifest ids", "count", parsed.Duplicates)
	}
	if len(parsed.Rows) == 0 {
		return cli.Exit("manifest has 0 rows, nothing to verify", 1)
	}

	reportPath := c.String("report")
	if reportPath == "" {
		reportPath = fmt.Sprintf("download_verify_%s.csv", runlog.Timestamp())
	}

	summary, err := verifypkg.Run(parsed.Rows, c.String("out-dir"), reportPath)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf("[VERIFY] %s\n[VERIFY] Report: %s\n", summary, reportPath)

	if !summary.Clean() && c.Bool("fail-on-verify") {
		return cli.Exit(fmt.Sprintf("verification found problems: %s", summary), 2)
	}
	return nil
}
