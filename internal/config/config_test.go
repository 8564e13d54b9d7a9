package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Pacman.Binary != "pacman" {
		t.Errorf("expected pacman binary, got %q", cfg.Pacman.Binary)
	}
	if cfg.Pacman.ElevationHelper != "pkexec" {
		t.Errorf("expected pkexec helper, got %q", cfg.Pacman.ElevationHelper)
	}
	if cfg.Timeouts.Operation.Duration != 300*time.Second {
		t.Errorf("expected 300s operation timeout, got %s", cfg.Timeouts.Operation)
	}
	if cfg.Timeouts.Query.Duration != 60*time.Second {
		t.Errorf("expected 60s query timeout, got %s", cfg.Timeouts.Query)
	}
	if cfg.Timeouts.Pending.Duration != 15*time.Second {
		t.Errorf("expected 15s pending timeout, got %s", cfg.Timeouts.Pending)
	}
	if cfg.Concurrency.MaxConcurrentChecks != 0 {
		t.Error("expected unbounded checks by default")
	}
	if !cfg.Output.Color {
		t.Error("expected Color to be true by default")
	}
	if cfg.Output.Verbose {
		t.Error("expected Verbose to be false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestResolveAlias(t *testing.T) {
	cfg := &Config{
		Aliases: map[string]string{
			"vim":  "neovim",
			"code": "visual-studio-code-bin",
		},
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"vim", "neovim"},
		{"code", "visual-studio-code-bin"},
		{"htop", "htop"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := cfg.ResolveAlias(tt.input); got != tt.expected {
				t.Errorf("ResolveAlias(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}

	assert.Equal(t, []string{"neovim", "htop"}, cfg.ResolveAliases([]string{"vim", "htop"}))
}

func TestLoadFromNonExistent(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[pacman]
elevation_helper = "sudo"
pending_command = ["pacman", "-Qu"]

[timeouts]
operation = "10m"
query = "30s"

[concurrency]
max_concurrent_checks = 8

[output]
format = "json"

[aliases]
vim = "neovim"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "sudo", cfg.Pacman.ElevationHelper)
	assert.Equal(t, "pacman", cfg.Pacman.Binary, "unset keys keep defaults")
	assert.Equal(t, []string{"pacman", "-Qu"}, cfg.Pacman.PendingCommand)
	assert.Equal(t, 10*time.Minute, cfg.Timeouts.Operation.Duration)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Query.Duration)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Pending.Duration)
	assert.Equal(t, 8, cfg.Concurrency.MaxConcurrentChecks)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "neovim", cfg.ResolveAlias("vim"))
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad duration", "[timeouts]\nquery = \"soon\"\n", "failed to parse"},
		{"negative timeout", "[timeouts]\nquery = \"-1s\"\n", "timeouts.query must be positive"},
		{"unknown key", "[pacman]\nbinery = \"pacman\"\n", "unknown config keys"},
		{"bad format", "[output]\nformat = \"xml\"\n", "output.format"},
		{"bad events", "[events]\nformat = \"xml\"\n", "events.format"},
		{"negative limit", "[concurrency]\nmax_concurrent_checks = -2\n", "max_concurrent_checks"},
		{"empty pending", "[pacman]\npending_command = []\n", "pending_command"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"invalid toml", "[pacman\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadFrom(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Pacman.ElevationHelper = "doas"
	cfg.Timeouts.Query = Duration{45 * time.Second}
	cfg.Aliases["code"] = "visual-studio-code-bin"

	require.NoError(t, cfg.SaveTo(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `query = "45s"`), string(raw))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestShouldUseColor(t *testing.T) {
	cfg := Default()

	t.Setenv("NO_COLOR", "")
	assert.True(t, cfg.ShouldUseColor())

	t.Setenv("NO_COLOR", "1")
	assert.False(t, cfg.ShouldUseColor())

	t.Setenv("NO_COLOR", "")
	cfg.Output.Color = false
	assert.False(t, cfg.ShouldUseColor())
}
