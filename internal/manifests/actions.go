package manifests

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/omicsforge/gdcfetch/models"
	"github.com/omicsforge/gdcfetch/pkg/gdc"
	"github.com/omicsforge/gdcfetch/pkg/manifest"
	"github.com/urfave/cli/v2"
)

// queryCap bounds how many hits one files query asks for; the GDC API
// rejects unbounded sizes.
const queryCap = 50000

// Action implements `gdcfetch build-manifests`: query the GDC files
// endpoint for one project and data kind, then write a download manifest
// and a pairing-ready metadata TSV.
func Action(c *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	kind, err := gdc.ParseDataKind(c.String("data-kind"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	limit, err := parseLimit(c.String("n"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	config, err := models.LoadConfig(c.String("config"), c.IsSet("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	endpoint := c.String("endpoint")
	if endpoint == "" {
		endpoint = config.Endpoint
	}

	project := c.String("project")
	client := gdc.NewClient(endpoint)

	logger.Info("querying GDC files endpoint", "project", project, "data_kind", kind)
	hits, err := client.Files(gdc.ProjectFilters(project, kind), gdc.QueryFields(kind), queryCap)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(hits) == 0 {
		return cli.Exit(fmt.Sprintf("no %s files found for project %s", kind, project), 1)
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	rows := make([]manifest.Row, len(hits))
	for i, h := range hits {
		rows[i] = manifest.Row{ID: h.FileID, Filename: h.FileName}
	}
	if err := manifest.Write(rows, c.String("out-manifest")); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := gdc.WriteMetadata(hits, c.String("out-meta"), kind); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Info("manifests written",
		"files", len(hits),
		"manifest", c.String("out-manifest"),
		"metadata", c.String("out-meta"))
	fmt.Printf("Wrote %d %s files: %s (+ metadata %s)\n", len(hits), kind, c.String("out-manifest"), c.String("out-meta"))
	return nil
}

// parseLimit interprets the --n flag: an integer cap, or "all" for the
// full cohort (returned as 0, meaning no cap).
func parseLimit(s string) (int, error) {
	if s == "" || s == "all" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid --n %q: want a positive integer or 'all'", s)
	}
	return n, nil
}
