package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Station to tune in to: "jpop" or "kpop"
	Station string

	// Initial playback lag in milliseconds, used until the audio
	// engine reports a measured value
	LagMS int64

	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Title}}"
	OutputFormat string

	// Fixed output width for the now command (0 = disabled)
	OutputWidth int

	// Data directory for the track archive
	// Default: ~/.local/share/radiomoe
	DataDir string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetDefault("station", "jpop")
	v.SetDefault("lag_ms", 0)
	v.SetDefault("output_format", "{{.Artist}} - {{.Title}}")
	v.SetDefault("output_width", 0)
	v.SetDefault("data_dir", "")

	// Config file is optional - don't fail if missing
	_ = v.ReadInConfig()

	v.SetEnvPrefix("RADIOMOE")
	v.AutomaticEnv()

	cfg := &Config{
		Station:      v.GetString("station"),
		LagMS:        v.GetInt64("lag_ms"),
		OutputFormat: v.GetString("output_format"),
		OutputWidth:  v.GetInt("output_width"),
		DataDir:      v.GetString("data_dir"),
	}

	return cfg, nil
}

// ResolveDataDir returns the configured data directory, falling back to
// ~/.local/share/radiomoe, and creates it.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(homeDir, ".local", "share", "radiomoe")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "radiomoe")

	_ = os.MkdirAll(configDir, 0755)

	return configDir
}
