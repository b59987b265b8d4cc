package download

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/omicsforge/gdcfetch/pkg/manifest"
)

// writeFakeClient writes a shell script standing in for gdc-client. The
// runner passes "download -m <manifest> -d <out> -n <threads>", so the
// output directory is $5.
func writeFakeClient(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake client script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-gdc-client")
	script := "#!/bin/sh\nout=\"$5\"\n" + body
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write fake client: %v", err)
	}
	return path
}

func writeManifestFile(t *testing.T, dir string, rows []manifest.Row) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.tsv")
	if err := manifest.Write(rows, path); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func baseOptions(t *testing.T, manifestPath, client string) Options {
	t.Helper()
	return Options{
		ManifestPath: manifestPath,
		OutDir:       filepath.Join(t.TempDir(), "out"),
		LogDir:       filepath.Join(t.TempDir(), "logs"),
		Threads:      2,
		ClientPath:   client,
		PollInterval: time.Second,
		VerifyAfter:  true,
		Progress:     io.Discard,
	}
}

func TestRunnerCommand(t *testing.T) {
	r := NewRunner(Options{
		ManifestPath: "m.tsv",
		OutDir:       "out",
		Threads:      8,
		ClientPath:   "gdc-client",
	}, discardLogger())

	got := strings.Join(r.Command(), " ")
	want := "gdc-client download -m m.tsv -d out -n 8"
	if got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}
}

func TestRunnerCommand_WithToken(t *testing.T) {
	r := NewRunner(Options{
		ManifestPath: "m.tsv",
		OutDir:       "out",
		Threads:      4,
		ClientPath:   "/opt/gdc-client",
		TokenFile:    "token.txt",
	}, discardLogger())

	got := strings.Join(r.Command(), " ")
	if !strings.HasSuffix(got, "-t token.txt") {
		t.Errorf("Command() = %q, want trailing -t token.txt", got)
	}
}

func TestRun_AllFilesTransferred(t *testing.T) {
	rows := []manifest.Row{
		{ID: "id1", Filename: "f1.txt"},
		{ID: "id2", Filename: "f2.txt"},
		{ID: "id3", Filename: "f3.txt"},
	}
	manifestPath := writeManifestFile(t, t.TempDir(), rows)

	client := writeFakeClient(t, `
for id in id1 id2 id3; do
  mkdir -p "$out/$id"
  printf 'payload' > "$out/$id/f${id#id}.txt"
done
echo "Successfully downloaded: 3"
exit 0
`)

	opts := baseOptions(t, manifestPath, client)
	result, err := NewRunner(opts, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ExitCode != 0 {
		t.Errorf("result.ExitCode = %d, want 0", result.ExitCode)
	}
	if result.Total != 3 || result.InitialDone != 0 || result.FinalDone != 3 {
		t.Errorf("counts = total %d initial %d final %d, want 3/0/3", result.Total, result.InitialDone, result.FinalDone)
	}
	if result.Verify == nil {
		t.Fatal("result.Verify = nil, want summary")
	}
	if result.Verify.OK != 3 || !result.Verify.Clean() {
		t.Errorf("verify summary = %+v, want OK=3 clean", result.Verify)
	}

	// The run log records the launch command first, then child output.
	data, err := os.ReadFile(result.LogPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if !strings.HasPrefix(lines[0], "[CMD] "+client+" download -m ") {
		t.Errorf("log first line = %q, want [CMD] block", lines[0])
	}
	if !strings.Contains(string(data), "Successfully downloaded: 3") {
		t.Errorf("log missing child output:\n%s", data)
	}

	// The verification report exists and covers all rows.
	report, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("read verify report: %v", err)
	}
	if n := strings.Count(string(report), "OK"); n != 3 {
		t.Errorf("report OK count = %d, want 3:\n%s", n, report)
	}
}

func TestRun_PartialTransfer(t *testing.T) {
	rows := []manifest.Row{
		{ID: "id1", Filename: "f1.txt"},
		{ID: "id2", Filename: "f2.txt"},
		{ID: "id3", Filename: "f3.txt"},
	}
	manifestPath := writeManifestFile(t, t.TempDir(), rows)

	// id1 lands intact, id2 lands truncated (zero bytes), id3 never lands,
	// and the client still claims success.
	client := writeFakeClient(t, `
mkdir -p "$out/id1" "$out/id2"
printf 'payload' > "$out/id1/f1.txt"
: > "$out/id2/f2.txt"
exit 0
`)

	opts := baseOptions(t, manifestPath, client)
	opts.FailOnVerify = true
	result, err := NewRunner(opts, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ExitCode != 0 {
		t.Errorf("result.ExitCode = %d, want 0 (client lied successfully)", result.ExitCode)
	}
	if result.Verify == nil {
		t.Fatal("result.Verify = nil, want summary")
	}
	if result.Verify.OK != 1 || result.Verify.Missing != 1 || result.Verify.Empty != 1 {
		t.Errorf("verify summary = %+v, want OK=1 MISSING=1 EMPTY=1", result.Verify)
	}
}

func TestRun_ResumedProgress(t *testing.T) {
	rows := []manifest.Row{
		{ID: "id1", Filename: "f1.txt"},
		{ID: "id2", Filename: "f2.txt"},
	}
	dir := t.TempDir()
	manifestPath := writeManifestFile(t, dir, rows)

	opts := baseOptions(t, manifestPath, "")
	// id1 existed before the run started.
	pre := manifest.ExpectedPath(opts.OutDir, "id1", "f1.txt")
	if err := os.MkdirAll(filepath.Dir(pre), 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(pre, []byte("already here"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	client := writeFakeClient(t, `
mkdir -p "$out/id2"
printf 'new' > "$out/id2/f2.txt"
exit 0
`)
	opts.ClientPath = client

	result, err := NewRunner(opts, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.InitialDone != 1 {
		t.Errorf("result.InitialDone = %d, want 1", result.InitialDone)
	}
	if result.FinalDone != 2 {
		t.Errorf("result.FinalDone = %d, want 2", result.FinalDone)
	}
}

func TestRun_UnterminatedChildOutput(t *testing.T) {
	rows := []manifest.Row{{ID: "id1", Filename: "f1.txt"}}
	manifestPath := writeManifestFile(t, t.TempDir(), rows)

	// A single multi-megabyte line with no newline at all: the pipe must
	// keep draining or the child blocks on a full buffer and never exits.
	client := writeFakeClient(t, `
mkdir -p "$out/id1"
printf 'payload' > "$out/id1/f1.txt"
head -c 2097152 /dev/zero | tr '\0' 'x'
exit 0
`)

	opts := baseOptions(t, manifestPath, client)
	done := make(chan *Result, 1)
	go func() {
		result, err := NewRunner(opts, discardLogger()).Run(context.Background())
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
		done <- result
	}()

	var result *Result
	select {
	case result = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Run() did not return; child output drain stalled")
	}

	if result == nil {
		return
	}
	if result.ExitCode != 0 {
		t.Errorf("result.ExitCode = %d, want 0", result.ExitCode)
	}

	// Every byte of the oversized line lands in the log.
	data, err := os.ReadFile(result.LogPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if n := strings.Count(string(data), "x"); n != 2097152 {
		t.Errorf("log holds %d bytes of child output, want 2097152", n)
	}
}

func TestRun_NonzeroExitSkipsVerification(t *testing.T) {
	rows := []manifest.Row{{ID: "id1", Filename: "f1.txt"}}
	manifestPath := writeManifestFile(t, t.TempDir(), rows)

	client := writeFakeClient(t, `
echo "ERROR: token rejected" >&2
exit 7
`)

	opts := baseOptions(t, manifestPath, client)
	result, err := NewRunner(opts, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v (nonzero child exit is not a Run error)", err)
	}

	if result.ExitCode != 7 {
		t.Errorf("result.ExitCode = %d, want 7 (propagated unchanged)", result.ExitCode)
	}
	if result.Verify != nil {
		t.Error("result.Verify != nil, want verification skipped after failure")
	}

	// stderr interleaves into the same log, and the exit is recorded.
	data, err := os.ReadFile(result.LogPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), "ERROR: token rejected") {
		t.Errorf("log missing stderr line:\n%s", data)
	}
	if !strings.Contains(string(data), "[ERROR] gdc-client exited with code 7") {
		t.Errorf("log missing exit record:\n%s", data)
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	rows := []manifest.Row{{ID: "id1", Filename: "f1.txt"}}
	manifestPath := writeManifestFile(t, t.TempDir(), rows)

	opts := baseOptions(t, manifestPath, filepath.Join(t.TempDir(), "no-such-client"))
	_, err := NewRunner(opts, discardLogger()).Run(context.Background())

	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("Run() error = %v, want *LaunchError", err)
	}
}

func TestRun_ZeroRowManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "empty.tsv")
	if err := os.WriteFile(manifestPath, []byte("id\tfilename\n"), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	// A bogus client path proves no spawn is attempted: the manifest
	// check fails first.
	opts := baseOptions(t, manifestPath, "/definitely/not/a/client")
	_, err := NewRunner(opts, discardLogger()).Run(context.Background())
	if err == nil {
		t.Fatal("Run() with zero-row manifest: expected error, got nil")
	}
	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		t.Errorf("Run() error = %v, want config error, not LaunchError", err)
	}
}

func TestRun_UnreadableManifest(t *testing.T) {
	opts := baseOptions(t, filepath.Join(t.TempDir(), "missing.tsv"), "/bogus")
	if _, err := NewRunner(opts, discardLogger()).Run(context.Background()); err == nil {
		t.Fatal("Run() with missing manifest: expected error, got nil")
	}
}
