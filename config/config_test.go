package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Empty(t, cfg.Storage.Driver)
	assert.Equal(t, 140.0, cfg.Canvas.NodeHalfWidth)
	assert.Equal(t, 70.0, cfg.Canvas.NodeHalfHeight)
	assert.Equal(t, 3*time.Second, cfg.Canvas.TTL())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "chatflow", "config.toml")

	cfg := Default()
	cfg.Server.Addr = ":8080"
	cfg.Storage = StorageConfig{Driver: "sqlite", DSN: "flows.db"}
	cfg.Canvas.NotificationTTL = "5s"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", loaded.Server.Addr)
	assert.Equal(t, "sqlite", loaded.Storage.Driver)
	assert.Equal(t, 5*time.Second, loaded.Canvas.TTL())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \":9000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 140.0, cfg.Canvas.NodeHalfWidth)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDatabaseURLSelectsPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chatflow")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/chatflow", cfg.Storage.DSN)
}

func TestBadTTLFallsBack(t *testing.T) {
	c := CanvasConfig{NotificationTTL: "soon"}
	assert.Equal(t, 3*time.Second, c.TTL())
}
