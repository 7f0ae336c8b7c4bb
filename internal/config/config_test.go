package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "smalikit.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, runtime.NumCPU(), cfg.Jobs)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeConfig(t, "ext: [.smali, .txt]\nexclude: [build]\njobs: 3\nlogLevel: debug\nuseGitignore: false\nmaxFileBytes: 4096\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{".smali", ".txt"}, cfg.Ext)
	assert.Equal(t, []string{"build"}, cfg.Exclude)
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.UseGitignore)
	assert.Equal(t, int64(4096), cfg.MaxFileBytes)
	assert.Equal(t, "tmp/.smalikit", cfg.CacheDir, "unset keys keep defaults")
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"unknown key", "jbos: 2\n", "field jbos not found"},
		{"bad yaml", "ext: [\n", "parse config"},
		{"negative jobs", "jobs: -1\n", "jobs must be >= 0"},
		{"bad ext", "ext: [smali]\n", "ext entries must start with '.'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
