// gdcfetch wraps the external gdc-client downloader with logging,
// resumable progress reporting, and post-transfer verification, plus
// helpers for building manifests from the GDC API and auditing download
// trees.
package main

import (
	"fmt"
	"os"

	"github.com/omicsforge/gdcfetch/internal/download"
	"github.com/omicsforge/gdcfetch/internal/inventory"
	"github.com/omicsforge/gdcfetch/internal/manifests"
	"github.com/omicsforge/gdcfetch/internal/runs"
	"github.com/omicsforge/gdcfetch/internal/verify"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "gdcfetch",
		Usage: "bulk GDC downloads with logging, progress, and verification",
		Commands: []*cli.Command{
			{
				Name:   "download",
				Usage:  "run gdc-client against a manifest and watch its progress",
				Action: download.Action,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "manifest", Usage: "TSV with columns: id, filename", Required: true},
					&cli.StringFlag{Name: "out-dir", Usage: "download directory"},
					&cli.StringFlag{Name: "log-dir", Usage: "where to write logs + verification report"},
					&cli.IntFlag{Name: "threads", Value: 8, Usage: "maps to gdc-client -n"},
					&cli.StringFlag{Name: "gdc-client", Value: "gdc-client", Usage: "gdc-client executable or full path"},
					&cli.StringFlag{Name: "token-file", Usage: "optional token file (controlled access)"},
					&cli.BoolFlag{Name: "verify-after", Usage: "verify missing/empty after download"},
					&cli.BoolFlag{Name: "fail-on-verify", Usage: "exit nonzero if verification finds problems"},
					&cli.IntFlag{Name: "progress-every", Value: 10, Usage: "seconds between terminal progress updates"},
					&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "optional YAML defaults file"},
					&cli.BoolFlag{Name: "quiet", Usage: "only log errors"},
				},
			},
			{
				Name:   "verify",
				Usage:  "audit a download tree against a manifest (read-only)",
				Action: verify.Action,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "manifest", Required: true},
					&cli.StringFlag{Name: "out-dir", Usage: "download directory to audit", Required: true},
					&cli.StringFlag{Name: "report", Usage: "verification report path (default: timestamped CSV)"},
					&cli.BoolFlag{Name: "fail-on-verify", Usage: "exit nonzero if verification finds problems"},
				},
			},
			{
				Name:   "build-manifests",
				Usage:  "query the GDC files API and write manifest + metadata TSVs",
				Action: manifests.Action,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Usage: "e.g. TCGA-BRCA", Required: true},
					&cli.StringFlag{Name: "data-kind", Usage: "rnaseq or wsi", Required: true},
					&cli.StringFlag{Name: "n", Value: "all", Usage: "how many files: integer or 'all'"},
					&cli.StringFlag{Name: "out-manifest", Required: true},
					&cli.StringFlag{Name: "out-meta", Required: true},
					&cli.StringFlag{Name: "endpoint", Usage: "files API endpoint override"},
					&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "optional YAML defaults file"},
				},
			},
			{
				Name:   "inventory",
				Usage:  "inventory a download root (counts + extensions + examples)",
				Action: inventory.Action,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "root", Usage: "download root directory", Required: true},
					&cli.StringFlag{Name: "out", Usage: "where to write the report (.txt)", Required: true},
					&cli.IntFlag{Name: "examples", Value: 5, Usage: "how many example .tsv paths to list"},
				},
			},
			{
				Name:  "runs",
				Usage: "browse the run-history ledger",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list recent runs",
						Action: runs.ListAction,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Value: 20},
						},
					},
					{
						Name:      "show",
						Usage:     "show one run as YAML (latest when no id given)",
						ArgsUsage: "[run-id]",
						Action:    runs.ShowAction,
					},
				},
			},
		},
	}

	// cli.Exit errors are handled inside Run; anything that reaches here
	// is an internal failure.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
