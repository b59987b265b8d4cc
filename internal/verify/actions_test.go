package verify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func verifyApp() *cli.App {
	return &cli.App{
		Commands: []*cli.Command{{
			Name:   "verify",
			Action: Action,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "manifest"},
				&cli.StringFlag{Name: "out-dir"},
				&cli.StringFlag{Name: "report"},
				&cli.BoolFlag{Name: "fail-on-verify"},
			},
		}},
	}
}

func TestAction_DuplicateManifestIDs(t *testing.T) {
	dir := t.TempDir()

	manifestPath := filepath.Join(dir, "manifest.tsv")
	content := "id\tfilename\nid1\tf1.txt\nid1\tf1.txt\nid2\tf2.txt\n"
	if err := os.WriteFile(manifestPath, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(filepath.Join(outDir, "id1"), 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "id1", "f1.txt"), []byte("payload"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reportPath := filepath.Join(dir, "report.csv")
	err := verifyApp().Run([]string{"gdcfetch", "verify",
		"--manifest", manifestPath, "--out-dir", outDir, "--report", reportPath})
	if err != nil {
		t.Fatalf("verify command error = %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	// The duplicate id1 row collapses to its first occurrence.
	var id1Rows int
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "id1,") {
			id1Rows++
		}
	}
	if id1Rows != 1 {
		t.Errorf("report has %d rows for id1, want 1:\n%s", id1Rows, data)
	}
	if !strings.Contains(string(data), "MISSING") {
		t.Errorf("report missing MISSING row for id2:\n%s", data)
	}
}
