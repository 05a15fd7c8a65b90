package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VL_NETWORK_FILE", "VL_TOTAL_LINES", "VL_SOURCE_URL",
		"VL_FETCH_TIMEOUT_SECONDS", "VL_REFRESH_INTERVAL_MINUTES",
		"VL_OUTPUT_DIR", "VL_STATIC_REFRESH_HOURS",
		"SQLITE_DATABASE", "DATABASE_URL", "RUN_RETENTION_DAYS",
		"PORT", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Network.TotalLines)
	assert.Len(t, cfg.Network.Palette, 12)
	assert.Equal(t, "#60A75B", cfg.Network.Palette[0])
	assert.Contains(t, cfg.Network.SourceURL, "ligne-%d.json")
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 24, cfg.StaticRefreshHours)
	assert.Equal(t, 30*24*time.Hour, cfg.RetentionDuration)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.UsePostgres())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VL_TOTAL_LINES", "3")
	t.Setenv("VL_SOURCE_URL", "http://localhost/ligne-%d.json")
	t.Setenv("VL_FETCH_TIMEOUT_SECONDS", "2")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/voies")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RUN_RETENTION_DAYS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Network.TotalLines)
	assert.Equal(t, "http://localhost/ligne-%d.json", cfg.Network.SourceURL)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 30*24*time.Hour, cfg.RetentionDuration)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero lines", "VL_TOTAL_LINES", "0"},
		{"url without placeholder", "VL_SOURCE_URL", "http://localhost/lines.json"},
		{"negative timeout", "VL_FETCH_TIMEOUT_SECONDS", "-1"},
		{"zero refresh", "VL_REFRESH_INTERVAL_MINUTES", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadNetworkFile(t *testing.T) {
	path := writeFile(t, "network.yml", `
name: Test network
total_lines: 2
palette:
  - "#111111"
  - "#222222"
`)

	n, err := LoadNetwork(path)
	require.NoError(t, err)
	assert.Equal(t, "Test network", n.Name)
	assert.Equal(t, 2, n.TotalLines)
	assert.Equal(t, []string{"#111111", "#222222"}, n.Palette)
	// not set in the file, kept from the embedded default
	assert.Contains(t, n.SourceURL, "%d")

	color, ok := n.LinePalette().Color(2)
	assert.True(t, ok)
	assert.Equal(t, "#222222", color)
}

func TestLoadNetworkInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad color", "palette: [\"#12345G\"]\n"},
		{"negative lines", "total_lines: -4\n"},
		{"not yaml", "total_lines: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadNetwork(writeFile(t, "network.yml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadNetwork(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VL_TEST_A=env\nVL_TEST_B=env\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("VL_TEST_B=local\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("VL_TEST_A", "")
	t.Setenv("VL_TEST_B", "")
	require.NoError(t, os.Unsetenv("VL_TEST_A"))
	require.NoError(t, os.Unsetenv("VL_TEST_B"))

	LoadEnvFiles()
	assert.Equal(t, "env", os.Getenv("VL_TEST_A"))
	assert.Equal(t, "local", os.Getenv("VL_TEST_B"))
}
