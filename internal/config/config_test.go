package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	root := t.TempDir()
	dir, err := OrchestratorDir(root)
	require.NoError(t, err)

	content := "timeout: 600\nmodel: sonnet\ngithub:\n  enabled: true\n  auto_close: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	require.Equal(t, 600, cfg.Timeout)
	require.Equal(t, "sonnet", cfg.Model)
	require.True(t, cfg.GitHub.Enabled)
	require.True(t, cfg.GitHub.AutoClose)
	require.Equal(t, 2, cfg.MaxRetries, "unset fields keep their default")
}

func TestLoadEnvOverridesTakePrecedence(t *testing.T) {
	root := t.TempDir()
	dir, err := OrchestratorDir(root)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("timeout: 600\n"), 0o644))

	t.Setenv("ORC_TIMEOUT", "42")

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 42, cfg.Timeout)
}

func TestOrchestratorDirCreatesDirectory(t *testing.T) {
	root := t.TempDir()
	dir, err := OrchestratorDir(root)
	require.NoError(t, err)

	info, statErr := os.Stat(dir)
	require.NoError(t, statErr)
	require.True(t, info.IsDir())
}
