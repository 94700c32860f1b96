package config

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngld/b/pkg/taskfile"
)

func missingFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "b.toml")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, taskfile.DefaultName, cfg.File)
	assert.True(t, cfg.Search)
	assert.Equal(t, 1, cfg.Jobs)
	assert.False(t, cfg.DepsOnly)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("B_FILE", "tasks.txt")
	t.Setenv("B_JOBS", "4")

	cfg, err := Load(missingFile(t))
	require.NoError(t, err)
	assert.Equal(t, "tasks.txt", cfg.File)
	assert.Equal(t, 4, cfg.Jobs)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(cfg *Config){
		"jobs":      func(cfg *Config) { cfg.Jobs = 0 },
		"log.level": func(cfg *Config) { cfg.Log.Level = "loud" },
		"file":      func(cfg *Config) { cfg.File = "" },
	}

	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg, err := Load(missingFile(t))
			require.NoError(t, err)

			mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := &Config{}
	cfg.Log.Level = "warning"
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel())
}
