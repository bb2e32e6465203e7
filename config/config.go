package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

const defaultMaxConcurrent = 8

// Config holds all configuration for the application.
// Values are loaded by Viper from a config file and/or environment variables.
type Config struct {
	GithubToken   string `mapstructure:"GITHUB_TOKEN"`
	SPTDir        string `mapstructure:"SPT_DIR"`
	MaxConcurrent int    `mapstructure:"MAX_CONCURRENT"`
	DatabasePath  string `mapstructure:"-"` // Not from env, derived
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)   // Path to look for the config file in
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")  // REQUIRED if the config file does not have the extension in the name

	vipErr := viper.ReadInConfig()
	if _, ok := vipErr.(viper.ConfigFileNotFoundError); ok {
		slog.Info("Config file (.env) not found, relying on environment variables.")
	} else if vipErr != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vipErr)
	}

	// Bind environment variables automatically.
	viper.AutomaticEnv()

	for key, envVar := range map[string]string{
		"github_token":   "GITHUB_TOKEN",
		"spt_dir":        "SPT_DIR",
		"max_concurrent": "MAX_CONCURRENT",
	} {
		if bindErr := viper.BindEnv(key, envVar); bindErr != nil {
			slog.Warn("Unable to bind env var", "name", envVar, "error", bindErr)
		}
	}

	if vipErr = viper.Unmarshal(&config); vipErr != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", vipErr)
	}

	// MAX_CONCURRENT arrives as a string from env files, so parse it
	// explicitly rather than trusting the unmarshal coercion.
	if raw := viper.GetString("MAX_CONCURRENT"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed < 1 {
			slog.Warn("Invalid value for MAX_CONCURRENT, using default", "value", raw)
			config.MaxConcurrent = 0
		} else {
			config.MaxConcurrent = parsed
		}
	}

	processConfigDefaults(&config)

	if err := validateAndEnsureDirectories(&config); err != nil {
		return Config{}, err
	}

	if config.DatabasePath, err = deriveDatabasePath(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func processConfigDefaults(cfg *Config) {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
}

func validateAndEnsureDirectories(cfg *Config) error {
	// SPT_DIR is optional: profiles carry their own output directory and
	// only fall back to this one at creation time.
	if cfg.SPTDir == "" {
		return nil
	}
	if !filepath.IsAbs(cfg.SPTDir) {
		return fmt.Errorf("SPT_DIR must be an absolute path, got %q", cfg.SPTDir)
	}
	if err := os.MkdirAll(cfg.SPTDir, 0755); err != nil {
		slog.Error("Failed to create SPT directory", "path", cfg.SPTDir, "error", err)
		return err
	}
	return nil
}

// deriveDatabasePath places the profile database under the user config
// directory so it survives reinstalls of any single SPT directory.
func deriveDatabasePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	appDir := filepath.Join(configDir, "spt-mod-manager")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return filepath.Join(appDir, "mods.db"), nil
}
