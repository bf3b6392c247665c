// Package config handles engine process configuration using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "doppio-engine"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

var (
	// globalConfig holds the loaded configuration.
	globalConfig *Config
	// configPath stores the path where config was loaded from.
	configPath string
)

// ConfigDir returns the engine's configuration directory.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DataDir returns the engine's data directory (logs, transfer scratch space).
// Honors Config.DataDir when set; otherwise defaults alongside ConfigDir.
func DataDir(cfg *Config) (string, error) {
	if cfg != nil && cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "data"), nil
}

// Load reads and parses the configuration file, falling back to defaults
// when no config file is present.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileExt)

	cfgDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v.AddConfigPath(cfgDir)
	v.AddConfigPath(".")

	defaults := DefaultConfig()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("scheduler.max_parallel_steps", defaults.Scheduler.MaxParallelSteps)
	v.SetDefault("terminal.ring_buffer_cap_bytes", defaults.Terminal.RingBufferCapBytes)
	v.SetDefault("terminal.marker_poll_millis", defaults.Terminal.MarkerPollMillis)
	v.SetDefault("terminal.prompt_poll_millis", defaults.Terminal.PromptPollMillis)
	v.SetDefault("terminal.max_scrollback_lines", defaults.Terminal.MaxScrollbackLines)
	v.SetDefault("ssh.connect_timeout_secs", defaults.SSH.ConnectTimeoutSecs)
	v.SetDefault("ssh.keepalive_interval_secs", defaults.SSH.KeepaliveIntervalSecs)
	v.SetDefault("ssh.keepalive_count_max", defaults.SSH.KeepaliveCountMax)
	v.SetDefault("ssh.resolve_deadline_secs", defaults.SSH.ResolveDeadlineSecs)
	v.SetDefault("ssh.vast_start_deadline_secs", defaults.SSH.VastStartDeadlineSecs)
	v.SetDefault("log_store.default_chunk_bytes", defaults.LogStore.DefaultChunkBytes)
	v.SetDefault("log_store.min_chunk_bytes", defaults.LogStore.MinChunkBytes)
	v.SetDefault("tail_server.enabled", defaults.TailServer.Enabled)
	v.SetDefault("tail_server.host", defaults.TailServer.Host)
	v.SetDefault("tail_server.port", defaults.TailServer.Port)
	v.SetDefault("tail_server.token_ttl_secs", defaults.TailServer.TokenTTLSecs)
	v.SetDefault("marketplace.base_url", defaults.Marketplace.BaseURL)
	v.SetDefault("marketplace.api_key_secret_name", defaults.Marketplace.APIKeySecretName)
	v.SetDefault("marketplace.default_user", defaults.Marketplace.DefaultUser)
	v.SetDefault("events.ws_listen_addr", defaults.Events.WSListenAddr)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if ok := isConfigFileNotFound(err, &notFound); ok {
			globalConfig = defaults
			return globalConfig, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configPath = v.ConfigFileUsed()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	globalConfig = &cfg
	return globalConfig, nil
}

func isConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	asserted, ok := err.(viper.ConfigFileNotFoundError)
	if ok {
		*target = asserted
	}
	return ok
}

// Get returns the currently loaded configuration, loading it on first use.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			return DefaultConfig()
		}
		return cfg
	}
	return globalConfig
}

// ConfigFilePath returns the path to the config file that was actually loaded.
func ConfigFilePath() string {
	return configPath
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0755)
}

// CreateDefaultConfig writes a default config file if one doesn't already exist.
func CreateDefaultConfig() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	if _, err := os.Stat(cfgPath); err == nil {
		return nil // File exists
	}

	defaults := DefaultConfig()
	data, err := toml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	header := []byte(`# Doppio engine configuration file.

`)

	if err := os.WriteFile(cfgPath, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Save writes the given configuration to the config file and caches it.
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	globalConfig = cfg
	return nil
}

// Reset clears the cached configuration and any test overrides.
func Reset() {
	globalConfig = nil
	configPath = ""
	configDirOverride = ""
}
