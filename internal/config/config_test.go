package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenRootFromEnv(t *testing.T) {
	t.Setenv("LILDB_ROOT", t.TempDir())
	t.Setenv("LILDB_ADDR", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddr, cfg.Server.ListenAddr)
	require.Equal(t, DefaultListenPort, cfg.Server.ListenPort)
	require.Equal(t, DefaultMaxNameLength, cfg.Database.MaxNameLength)
}

func TestLoadMissingRootIsConfigError(t *testing.T) {
	t.Setenv("LILDB_ROOT", "")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lildb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: /from/file\nserver:\n  listen_addr: 0.0.0.0\n"), 0o644))

	t.Setenv("LILDB_ROOT", dir)
	t.Setenv("LILDB_ADDR", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.Root)
	require.Equal(t, "0.0.0.0", cfg.Server.ListenAddr)
}

func TestEnsureDirsCreatesMissingRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "root")
	cfg := &Config{Root: dir}
	require.NoError(t, EnsureDirs(cfg))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLoadRejectsNameLengthAboveCeiling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lildb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  max_name_length: 300\n"), 0o644))

	t.Setenv("LILDB_ROOT", dir)
	_, err := Load(path)
	require.Error(t, err)
}
