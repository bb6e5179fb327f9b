package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ShouldLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, path, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestConfig_ShouldReadFileAndEnvironment(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ICONPANE_RENDER_COLOR", "#ff0000")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
manifests_dir = "/srv/manifests"

[render]
size = 128
color = "#00ff00"

[cache]
backend = "sqlite"
path = "/tmp/iconpane.db"
`), 0o644))

	cfg, resolved, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "/srv/manifests", cfg.ManifestsDir)
	assert.Equal(t, 128, cfg.Render.Size)
	assert.Equal(t, "#ff0000", cfg.Render.Color)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 4, cfg.Preload.BatchSize)
	assert.Equal(t, 100.0, cfg.Insert.Left)
}

func TestConfig_ShouldReadPackageSchemes(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[packages]
scheme = "lz-base64"

[packages.schemes]
bootstrap = "lz-utf16"
tabler = "lz-raw"
`), 0o644))

	cfg, _, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "lz-base64", cfg.Packages.Scheme)
	assert.Equal(t, map[string]string{"bootstrap": "lz-utf16", "tabler": "lz-raw"}, cfg.Packages.Schemes)
}

func TestConfig_ShouldParseCacheMaxAge(t *testing.T) {
	cfg := Default()
	d, err := cfg.CacheMaxAge()
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, d)

	cfg.Cache.MaxAge = ""
	d, err = cfg.CacheMaxAge()
	require.NoError(t, err)
	assert.Zero(t, d)

	cfg.Cache.MaxAge = "soon"
	_, err = cfg.CacheMaxAge()
	assert.Error(t, err)
	assert.Error(t, cfg.Validate())
}

func TestConfig_ShouldRejectInvalidValues(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cache]\nbackend = \"redis\"\n[render]\nsize = 0\n"), 0o644))

	_, _, err := Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
	assert.Contains(t, err.Error(), "render.size")

	_, _, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_ShouldWriteDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iconpane", "config.toml")
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	require.NoError(t, WriteDefault(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, toml.Unmarshal(data, &decoded))
	assert.Equal(t, *Default(), decoded)

	cfg, _, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
