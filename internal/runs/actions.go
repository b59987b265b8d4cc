package runs

import (
	"fmt"
	"strings"
	"time"

	"github.com/omicsforge/gdcfetch/pkg/db"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// ListAction implements `gdcfetch runs list`.
func ListAction(c *cli.Context) error {
	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	// Print table header
	fmt.Printf("%-6s %-20s %-10s %-12s %-6s %-20s %-40s\n",
		"ID", "Started", "Done", "Verify", "Exit", "Elapsed", "Manifest")
	fmt.Println(strings.Repeat("-", 118))

	// Print each run
	for _, r := range runs {
		verify := "-"
		if r.Verified {
			verify = fmt.Sprintf("%d/%d/%d", r.VerifyOK, r.VerifyMissing, r.VerifyEmpty)
		}
		fmt.Printf("%-6d %-20s %-10s %-12s %-6d %-20s %-40s\n",
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d", r.FinalDone, r.TotalRows),
			verify,
			r.ExitCode,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			r.ManifestPath,
		)
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'gdcfetch runs show <id>' to see details\n")

	return nil
}

// ShowAction implements `gdcfetch runs show [id]`; with no id it shows
// the latest run. Output is YAML for easy scripting.
func ShowAction(c *cli.Context) error {
	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer database.Close()

	run, err := resolveRun(c, database)
	if err != nil {
		return err
	}

	yamlBytes, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to render run: %w", err)
	}
	fmt.Print(string(yamlBytes))
	return nil
}

// resolveRun returns the run named by the first argument, or the latest
// recorded run when no argument is given.
func resolveRun(c *cli.Context, database *db.DB) (*db.Run, error) {
	if c.NArg() == 0 {
		runs, err := database.ListRuns(1)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest run: %w", err)
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("no runs recorded. Run 'gdcfetch download' first")
		}
		return &runs[0], nil
	}

	var runID int64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &runID); err != nil {
		return nil, fmt.Errorf("invalid run ID: %s", c.Args().First())
	}
	return database.GetRunByID(runID)
}
