package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "weedlens.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "addr: \":9000\"\nprovider: openai\nrate_limit_per_minute: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("WEEDLENS_CONFIG", path)
	t.Setenv("WEEDLENS_MODEL", "gpt-4o")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 3, cfg.RateLimitPerMinute)
	assert.Equal(t, "gpt-4o", cfg.Model)
}

func TestLoadEnvBeatsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9000\"\n"), 0o644))

	t.Setenv("WEEDLENS_CONFIG", path)
	t.Setenv("ADDR", ":7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("WEEDLENS_PROVIDER", "acme")
	_, err := Load()
	assert.Error(t, err)
}
