// Package config loads and saves pacdeck's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete pacdeck configuration.
type Config struct {
	General     GeneralConfig     `toml:"general"`
	Pacman      PacmanConfig      `toml:"pacman"`
	Timeouts    TimeoutConfig     `toml:"timeouts"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Events      EventsConfig      `toml:"events"`
	Output      OutputConfig      `toml:"output"`
	Log         LogConfig         `toml:"log"`
	Aliases     map[string]string `toml:"aliases"`
}

// GeneralConfig contains general settings.
type GeneralConfig struct {
	// AutoConfirm skips confirmation prompts.
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun reports the command line instead of running mutating operations.
	DryRun bool `toml:"dry_run"`
}

// PacmanConfig locates the external programs and files pacdeck drives.
type PacmanConfig struct {
	// Binary is the pacman executable.
	Binary string `toml:"binary"`

	// ElevationHelper runs privileged commands (pkexec, sudo, doas).
	ElevationHelper string `toml:"elevation_helper"`

	// SkipElevationAsRoot runs pacman directly when already root.
	SkipElevationAsRoot bool `toml:"skip_elevation_as_root"`

	// LogFile is pacman's transaction log.
	LogFile string `toml:"log_file"`

	// PendingCommand lists pending updates, one per line.
	PendingCommand []string `toml:"pending_command"`
}

// TimeoutConfig holds per-class command deadlines.
type TimeoutConfig struct {
	Operation Duration `toml:"operation"`
	Query     Duration `toml:"query"`
	Pending   Duration `toml:"pending"`
}

// ConcurrencyConfig bounds batch status checks.
type ConcurrencyConfig struct {
	// MaxConcurrentChecks caps simultaneous package checks; 0 is unbounded.
	MaxConcurrentChecks int `toml:"max_concurrent_checks"`
}

// EventsConfig controls progress event delivery.
type EventsConfig struct {
	Channel string `toml:"channel"`
	Buffer  int    `toml:"buffer"`
	Format  string `toml:"format"` // text, json, spinner, none
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`

	// Format is the result format: table, json or yaml.
	Format string `toml:"format"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration is a time.Duration written as "5m" or "60s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var (
	validEventFormats  = []string{"text", "json", "spinner", "none"}
	validOutputFormats = []string{"table", "json", "yaml"}
	validLogLevels     = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			AutoConfirm: false,
			DryRun:      false,
		},
		Pacman: PacmanConfig{
			Binary:              "pacman",
			ElevationHelper:     "pkexec",
			SkipElevationAsRoot: true,
			LogFile:             "/var/log/pacman.log",
			PendingCommand:      []string{"checkupdates"},
		},
		Timeouts: TimeoutConfig{
			Operation: Duration{300 * time.Second},
			Query:     Duration{60 * time.Second},
			Pending:   Duration{15 * time.Second},
		},
		Concurrency: ConcurrencyConfig{
			MaxConcurrentChecks: 0,
		},
		Events: EventsConfig{
			Channel: "pacman-progress",
			Buffer:  256,
			Format:  "text",
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
			Verbose: false,
			Format:  "table",
		},
		Log: LogConfig{
			Level: "warn",
			File:  LogPath(),
		},
		Aliases: map[string]string{},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at run time.
func (c *Config) Validate() error {
	var errs []error

	if c.Pacman.Binary == "" {
		errs = append(errs, errors.New("pacman.binary must not be empty"))
	}
	if len(c.Pacman.PendingCommand) == 0 || c.Pacman.PendingCommand[0] == "" {
		errs = append(errs, errors.New("pacman.pending_command must name a program"))
	}
	for name, d := range map[string]Duration{
		"operation": c.Timeouts.Operation,
		"query":     c.Timeouts.Query,
		"pending":   c.Timeouts.Pending,
	} {
		if d.Duration <= 0 {
			errs = append(errs, fmt.Errorf("timeouts.%s must be positive", name))
		}
	}
	if c.Concurrency.MaxConcurrentChecks < 0 {
		errs = append(errs, errors.New("concurrency.max_concurrent_checks must not be negative"))
	}
	if c.Events.Buffer < 0 {
		errs = append(errs, errors.New("events.buffer must not be negative"))
	}
	if !oneOf(c.Events.Format, validEventFormats) {
		errs = append(errs, fmt.Errorf("events.format must be one of %s", strings.Join(validEventFormats, ", ")))
	}
	if !oneOf(c.Output.Format, validOutputFormats) {
		errs = append(errs, fmt.Errorf("output.format must be one of %s", strings.Join(validOutputFormats, ", ")))
	}
	if c.Log.Level != "" && !oneOf(strings.ToLower(c.Log.Level), validLogLevels) {
		errs = append(errs, fmt.Errorf("log.level %q is not a known level", c.Log.Level))
	}

	return errors.Join(errs...)
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// ResolveAlias returns the actual package name for an alias, or the original name if no alias exists.
func (c *Config) ResolveAlias(pkg string) string {
	if alias, ok := c.Aliases[pkg]; ok {
		return alias
	}
	return pkg
}

// ResolveAliases resolves all aliases in a list of package names.
func (c *Config) ResolveAliases(packages []string) []string {
	resolved := make([]string, len(packages))
	for i, pkg := range packages {
		resolved[i] = c.ResolveAlias(pkg)
	}
	return resolved
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
