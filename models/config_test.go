package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
gdc_client: /opt/gdc/gdc-client
out_dir: data/rnaseq
log_dir: logs
threads: 12
progress_every: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.GDCClient != "/opt/gdc/gdc-client" {
		t.Errorf("config.GDCClient = %q", config.GDCClient)
	}
	if config.Threads != 12 {
		t.Errorf("config.Threads = %d, want 12", config.Threads)
	}
	if config.ProgressEvery != 5 {
		t.Errorf("config.ProgressEvery = %d, want 5", config.ProgressEvery)
	}
	if config.Endpoint != "" {
		t.Errorf("config.Endpoint = %q, want empty (unset)", config.Endpoint)
	}
}

func TestLoadConfig_MissingOptional(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("LoadConfig() optional missing file error = %v", err)
	}
	if *config != (Config{}) {
		t.Errorf("config = %+v, want zero value", config)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Error("LoadConfig() required missing file: expected error, got nil")
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("threads: [not a number"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path, true); err == nil {
		t.Error("LoadConfig() malformed yaml: expected error, got nil")
	}
}
