// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadWithOptions reads configuration honoring an explicit file or directory
// override, bypassing the cached globalConfig. It returns the resolved
// config file path alongside the parsed config (empty when defaults were
// used because no file was found).
func loadWithOptions(_ context.Context, opts LoadOptions) (*Config, string, error) {
	v := viper.New()
	v.SetConfigType(ConfigFileExt)

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

	switch {
	case opts.ConfigFilePath != "":
		v.SetConfigFile(opts.ConfigFilePath)
	case opts.ConfigDirPath != "":
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(opts.ConfigDirPath)
	default:
		v.SetConfigName(ConfigFileName)
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, "", err
		}
		v.AddConfigPath(cfgDir)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if isConfigFileNotFound(err, &notFound) {
			return defaults, "", nil
		}
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	used := v.ConfigFileUsed()
	if used == "" && opts.ConfigDirPath != "" {
		used = filepath.Join(opts.ConfigDirPath, ConfigFileName+"."+ConfigFileExt)
	}

	return &cfg, used, nil
}
