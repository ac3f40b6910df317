package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.UseLocalStore(), "no DSN configured means demo mode")
	assert.NotNil(t, cfg.Log)
}

func TestUseLocalStore(t *testing.T) {
	cfg := &Config{DSN: "host=db user=app dbname=slidevault"}
	assert.False(t, cfg.UseLocalStore())

	cfg.DemoMode = true
	assert.True(t, cfg.UseLocalStore(), "demo flag wins over a configured DSN")

	cfg = &Config{}
	assert.True(t, cfg.UseLocalStore())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SLIDEVAULT_DEMO_MODE", "true")
	t.Setenv("SLIDEVAULT_DSN", "host=db")

	cfg := Load()
	assert.Equal(t, "9999", cfg.Port)
	assert.True(t, cfg.DemoMode)
	assert.True(t, cfg.UseLocalStore())
}

func TestSettings_DefaultWhenMissing(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, "light", s.Theme)
}

func TestSettings_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{Theme: "dark"}
	require.NoError(t, s.Save(path))

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.Theme)
}

func TestSettings_ToggleTheme(t *testing.T) {
	s := &Settings{Theme: "light"}
	assert.Equal(t, "dark", s.ToggleTheme())
	assert.Equal(t, "light", s.ToggleTheme())
}

func TestSettings_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}
