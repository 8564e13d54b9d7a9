package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName     = "pacdeck"
	configFile  = "config.toml"
	historyFile = "history.db"
	logFile     = "pacdeck.log"
)

// Environment variables that override the XDG base directories.
const (
	EnvConfigDir = "PACDECK_CONFIG_DIR"
	EnvDataDir   = "PACDECK_DATA_DIR"
	EnvStateDir  = "PACDECK_STATE_DIR"
)

// ConfigDir returns the configuration directory for pacdeck.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// DataDir returns the data directory for pacdeck.
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns the state directory used for logs.
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.StateHome, appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// HistoryPath returns the full path to the operation history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// LogPath returns the full path to the diagnostic log.
func LogPath() string {
	return filepath.Join(StateDir(), logFile)
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0755)
}
