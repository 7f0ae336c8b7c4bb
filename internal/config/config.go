// Package config loads the optional YAML configuration of the smalikit CLI.
//
// A file supplies defaults for the walk and the run; command-line flags that
// are set explicitly override it. Unknown keys are rejected so that typos do
// not silently fall back to defaults.
//
// Example:
//
//	ext: [.smali]
//	exclude: [.git, build]
//	jobs: 8
//	cacheDir: tmp/.smalikit
//	logLevel: info
//	useGitignore: true
//	followSymlinks: false
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the decoded configuration file.
type Config struct {
	Ext            []string `yaml:"ext"`
	Exclude        []string `yaml:"exclude"`
	Jobs           int      `yaml:"jobs"`
	CacheDir       string   `yaml:"cacheDir"`
	LogLevel       string   `yaml:"logLevel"`
	UseGitignore   bool     `yaml:"useGitignore"`
	FollowSymlinks bool     `yaml:"followSymlinks"`
	MaxFileBytes   int64    `yaml:"maxFileBytes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Ext:          []string{".smali"},
		Exclude:      []string{".git", ".idea", ".vscode", ".DS_Store"},
		Jobs:         runtime.NumCPU(),
		CacheDir:     "tmp/.smalikit",
		LogLevel:     "info",
		UseGitignore: true,
		MaxFileBytes: 0,
	}
}

// Load reads path on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 0 (got %d)", c.Jobs)
	}
	if c.MaxFileBytes < 0 {
		return fmt.Errorf("maxFileBytes must be >= 0 (got %d)", c.MaxFileBytes)
	}
	for _, e := range c.Ext {
		if e == "" || e[0] != '.' {
			return fmt.Errorf("ext entries must start with '.' (got %q)", e)
		}
	}
	return nil
}
