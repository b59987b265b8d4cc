// Package models defines data structures for configuration.
package models

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/omicsforge/gdcfetch/pkg/storage"
	"gopkg.in/yaml.v3"
)

var store storage.Storage

// Config holds optional defaults loaded from a YAML file. CLI flags
// always win; the file just saves retyping stable site-local values.
type Config struct {
	GDCClient     string `yaml:"gdc_client"`     // gdc-client executable or full path
	Endpoint      string `yaml:"endpoint"`       // GDC files API endpoint override
	OutDir        string `yaml:"out_dir"`        // default download root
	LogDir        string `yaml:"log_dir"`        // default log + report directory
	Threads       int    `yaml:"threads"`        // default transfer concurrency
	ProgressEvery int    `yaml:"progress_every"` // default seconds between progress updates
}

// LoadConfig reads a YAML config file. A missing file is not an error
// when required is false: the zero Config means "flag defaults only".
func LoadConfig(path string, required bool) (*Config, error) {
	data, err := store.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}
