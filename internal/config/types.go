// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config holds the engine process configuration.
	Config struct {
		// DataDir is the root directory for execution logs and transfer scratch space.
		DataDir string `toml:"data_dir" mapstructure:"data_dir"`
		// Scheduler configures the ExecutionScheduler.
		Scheduler SchedulerConfig `toml:"scheduler" mapstructure:"scheduler"`
		// Terminal configures TerminalSession/MarkerProtocol polling.
		Terminal TerminalConfig `toml:"terminal" mapstructure:"terminal"`
		// SSH configures SSHEndpoint defaults and HostResolver deadlines.
		SSH SSHConfig `toml:"ssh" mapstructure:"ssh"`
		// LogStore configures the JSONL log reader/writer.
		LogStore LogStoreConfig `toml:"log_store" mapstructure:"log_store"`
		// TailServer configures the optional remote-tail SSH server.
		TailServer TailServerConfig `toml:"tail_server" mapstructure:"tail_server"`
		// Marketplace configures the GPU-marketplace API client.
		Marketplace MarketplaceConfig `toml:"marketplace" mapstructure:"marketplace"`
		// Events configures the optional websocket event-bus bridge.
		Events EventsConfig `toml:"events" mapstructure:"events"`
		// UI configures CLI presentation.
		UI UIConfig `toml:"ui" mapstructure:"ui"`
	}

	// SchedulerConfig configures the ExecutionScheduler.
	SchedulerConfig struct {
		// MaxParallelSteps bounds concurrently-running steps within one execution.
		MaxParallelSteps int `toml:"max_parallel_steps" mapstructure:"max_parallel_steps"`
	}

	// TerminalConfig configures TerminalSession/MarkerProtocol behavior.
	TerminalConfig struct {
		// RingBufferCapBytes is the ring buffer cap before halving (default 1 MiB).
		RingBufferCapBytes int `toml:"ring_buffer_cap_bytes" mapstructure:"ring_buffer_cap_bytes"`
		// MarkerPollMillis is the wait_for_marker poll interval (default 100ms).
		MarkerPollMillis int `toml:"marker_poll_millis" mapstructure:"marker_poll_millis"`
		// PromptPollMillis is the wait_for_prompt_marker poll interval (default 50ms).
		PromptPollMillis int `toml:"prompt_poll_millis" mapstructure:"prompt_poll_millis"`
		// MaxScrollbackLines bounds the best-effort tmux capture window (default 5000).
		MaxScrollbackLines int `toml:"max_scrollback_lines" mapstructure:"max_scrollback_lines"`
	}

	// SSHConfig configures SSHEndpoint defaults and HostResolver deadlines.
	SSHConfig struct {
		// ConnectTimeoutSecs is passed as ConnectTimeout to ssh (default 15).
		ConnectTimeoutSecs int `toml:"connect_timeout_secs" mapstructure:"connect_timeout_secs"`
		// KeepaliveIntervalSecs is passed as ServerAliveInterval (default 30).
		KeepaliveIntervalSecs int `toml:"keepalive_interval_secs" mapstructure:"keepalive_interval_secs"`
		// KeepaliveCountMax is passed as ServerAliveCountMax (default 4).
		KeepaliveCountMax int `toml:"keepalive_count_max" mapstructure:"keepalive_count_max"`
		// ResolveDeadlineSecs bounds resolve_with_retry for general use (default 180).
		ResolveDeadlineSecs int `toml:"resolve_deadline_secs" mapstructure:"resolve_deadline_secs"`
		// VastStartDeadlineSecs bounds resolve_with_retry after VastStart (default 300).
		VastStartDeadlineSecs int `toml:"vast_start_deadline_secs" mapstructure:"vast_start_deadline_secs"`
	}

	// LogStoreConfig configures the JSONL log store.
	LogStoreConfig struct {
		// DefaultChunkBytes is the default read_chunk size (default 256 KiB).
		DefaultChunkBytes int `toml:"default_chunk_bytes" mapstructure:"default_chunk_bytes"`
		// MinChunkBytes is the floor on requested chunk size (default 4 KiB).
		MinChunkBytes int `toml:"min_chunk_bytes" mapstructure:"min_chunk_bytes"`
	}

	// TailServerConfig configures the optional remote-tail SSH server.
	TailServerConfig struct {
		// Enabled turns the tail server on.
		Enabled bool `toml:"enabled" mapstructure:"enabled"`
		// Host is the bind address (default 127.0.0.1).
		Host string `toml:"host" mapstructure:"host"`
		// Port is the listen port (0 selects automatically).
		Port int `toml:"port" mapstructure:"port"`
		// TokenTTLSecs is how long an issued attach token remains valid.
		TokenTTLSecs int `toml:"token_ttl_secs" mapstructure:"token_ttl_secs"`
	}

	// MarketplaceConfig configures the GPU-marketplace API client.
	// The API key itself is never stored here — it is resolved at call time
	// from SecretsStore under APIKeySecretName.
	MarketplaceConfig struct {
		// BaseURL is the marketplace API's base URL.
		BaseURL string `toml:"base_url" mapstructure:"base_url"`
		// APIKeySecretName is the SecretsStore key holding the API token.
		APIKeySecretName string `toml:"api_key_secret_name" mapstructure:"api_key_secret_name"`
		// DefaultUser is the SSH user assumed for an instance whose
		// marketplace record doesn't carry one.
		DefaultUser string `toml:"default_user" mapstructure:"default_user"`
	}

	// EventsConfig configures the websocket bridge that streams JSON event
	// envelopes to a connected UI.
	EventsConfig struct {
		// WSListenAddr is the address the bridge's HTTP server binds to
		// (e.g. "127.0.0.1:7780"). Empty disables the bridge.
		WSListenAddr string `toml:"ws_listen_addr" mapstructure:"ws_listen_addr"`
	}

	// UIConfig configures CLI presentation.
	UIConfig struct {
		// ColorScheme sets the color scheme ("auto", "dark", "light").
		ColorScheme string `toml:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose logging output.
		Verbose bool `toml:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "",
		Scheduler: SchedulerConfig{
			MaxParallelSteps: 4,
		},
		Terminal: TerminalConfig{
			RingBufferCapBytes: 1 << 20,
			MarkerPollMillis:   100,
			PromptPollMillis:   50,
			MaxScrollbackLines: 5000,
		},
		SSH: SSHConfig{
			ConnectTimeoutSecs:    15,
			KeepaliveIntervalSecs: 30,
			KeepaliveCountMax:     4,
			ResolveDeadlineSecs:   180,
			VastStartDeadlineSecs: 300,
		},
		LogStore: LogStoreConfig{
			DefaultChunkBytes: 256 << 10,
			MinChunkBytes:     4 << 10,
		},
		TailServer: TailServerConfig{
			Enabled:      false,
			Host:         "127.0.0.1",
			Port:         0,
			TokenTTLSecs: 300,
		},
		Marketplace: MarketplaceConfig{
			BaseURL:          "https://console.vast.ai/api/v0",
			APIKeySecretName: "vast_api_key",
			DefaultUser:      "root",
		},
		Events: EventsConfig{
			WSListenAddr: "",
		},
		UI: UIConfig{
			ColorScheme: "auto",
			Verbose:     false,
		},
	}
}
