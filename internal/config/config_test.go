// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scheduler.MaxParallelSteps != 4 {
		t.Errorf("expected default max parallel steps to be 4, got %d", cfg.Scheduler.MaxParallelSteps)
	}

	if cfg.Terminal.RingBufferCapBytes != 1<<20 {
		t.Errorf("expected default ring buffer cap to be 1MiB, got %d", cfg.Terminal.RingBufferCapBytes)
	}

	if cfg.SSH.ConnectTimeoutSecs != 15 {
		t.Errorf("expected default ssh connect timeout to be 15, got %d", cfg.SSH.ConnectTimeoutSecs)
	}

	if cfg.LogStore.DefaultChunkBytes != 256<<10 {
		t.Errorf("expected default chunk size to be 256KiB, got %d", cfg.LogStore.DefaultChunkBytes)
	}

	if cfg.TailServer.Enabled {
		t.Error("expected tail server to be disabled by default")
	}

	if cfg.UI.ColorScheme != "auto" {
		t.Errorf("expected default color scheme to be auto, got %s", cfg.UI.ColorScheme)
	}

	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}
}

func TestConfigDir(t *testing.T) {
	originalXDGConfigHome := os.Getenv("XDG_CONFIG_HOME")
	defer func() {
		if originalXDGConfigHome != "" {
			os.Setenv("XDG_CONFIG_HOME", originalXDGConfigHome)
		} else {
			os.Unsetenv("XDG_CONFIG_HOME")
		}
	}()

	if runtime.GOOS == "linux" {
		testXDGPath := "/tmp/test-xdg-config"
		os.Setenv("XDG_CONFIG_HOME", testXDGPath)

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() returned error: %v", err)
		}

		expected := filepath.Join(testXDGPath, AppName)
		if dir != expected {
			t.Errorf("ConfigDir() = %s, want %s", dir, expected)
		}

		os.Unsetenv("XDG_CONFIG_HOME")
		dir, err = ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() returned error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected = filepath.Join(home, ".config", AppName)
		if dir != expected {
			t.Errorf("ConfigDir() = %s, want %s", dir, expected)
		}
	}
}

func TestReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.MaxParallelSteps = 8
	globalConfig = cfg
	configPath = "/some/path"

	Reset()

	if globalConfig != nil {
		t.Error("expected globalConfig to be nil after Reset()")
	}

	if configPath != "" {
		t.Error("expected configPath to be empty after Reset()")
	}
}

func TestGet_ReturnsDefaultOnNoConfig(t *testing.T) {
	Reset()
	defer Reset()

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	cfg := Get()

	if cfg == nil {
		t.Fatal("Get() returned nil")
	}

	if cfg.Scheduler.MaxParallelSteps != 4 {
		t.Errorf("expected default max parallel steps, got %d", cfg.Scheduler.MaxParallelSteps)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, AppName)

	SetConfigDirOverride(configDir)
	defer Reset()

	err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Errorf("EnsureConfigDir() did not create directory %s", configDir)
	}
}

func TestLoadAndSave(t *testing.T) {
	Reset()
	defer Reset()

	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, AppName)

	SetConfigDirOverride(configDir)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	cfg := &Config{
		DataDir: "/var/lib/doppio",
		Scheduler: SchedulerConfig{
			MaxParallelSteps: 8,
		},
		Terminal: TerminalConfig{
			RingBufferCapBytes: 2 << 20,
			MarkerPollMillis:   200,
			PromptPollMillis:   75,
			MaxScrollbackLines: 10000,
		},
		SSH: SSHConfig{
			ConnectTimeoutSecs:    30,
			KeepaliveIntervalSecs: 60,
			KeepaliveCountMax:     6,
			ResolveDeadlineSecs:   360,
			VastStartDeadlineSecs: 600,
		},
		LogStore: LogStoreConfig{
			DefaultChunkBytes: 512 << 10,
			MinChunkBytes:     8 << 10,
		},
		TailServer: TailServerConfig{
			Enabled:      true,
			Host:         "0.0.0.0",
			Port:         2222,
			TokenTTLSecs: 600,
		},
		UI: UIConfig{
			ColorScheme: "dark",
			Verbose:     true,
		},
	}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	globalConfig = nil

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if loaded.DataDir != "/var/lib/doppio" {
		t.Errorf("DataDir = %s, want /var/lib/doppio", loaded.DataDir)
	}

	if loaded.Scheduler.MaxParallelSteps != 8 {
		t.Errorf("MaxParallelSteps = %d, want 8", loaded.Scheduler.MaxParallelSteps)
	}

	if loaded.SSH.ConnectTimeoutSecs != 30 {
		t.Errorf("ConnectTimeoutSecs = %d, want 30", loaded.SSH.ConnectTimeoutSecs)
	}

	if loaded.TailServer.Port != 2222 {
		t.Errorf("TailServer.Port = %d, want 2222", loaded.TailServer.Port)
	}

	if loaded.UI.ColorScheme != "dark" {
		t.Errorf("ColorScheme = %s, want dark", loaded.UI.ColorScheme)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	Reset()
	defer Reset()

	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, AppName)

	SetConfigDirOverride(configDir)

	originalWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Scheduler.MaxParallelSteps != defaults.Scheduler.MaxParallelSteps {
		t.Errorf("MaxParallelSteps = %d, want %d", cfg.Scheduler.MaxParallelSteps, defaults.Scheduler.MaxParallelSteps)
	}
}

func TestLoad_ReturnsCachedConfig(t *testing.T) {
	Reset()
	defer Reset()

	cachedCfg := &Config{
		Scheduler: SchedulerConfig{MaxParallelSteps: 99},
	}
	globalConfig = cachedCfg

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Scheduler.MaxParallelSteps != 99 {
		t.Errorf("expected cached config, got MaxParallelSteps = %d", cfg.Scheduler.MaxParallelSteps)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, AppName)

	SetConfigDirOverride(configDir)
	defer Reset()

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}

	expectedPath := filepath.Join(configDir, ConfigFileName+"."+ConfigFileExt)
	if _, statErr := os.Stat(expectedPath); os.IsNotExist(statErr) {
		t.Errorf("CreateDefaultConfig() did not create file at %s", expectedPath)
	}

	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	if len(content) == 0 {
		t.Error("config file is empty")
	}

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error on second call: %v", err)
	}
}

func TestConfigFilePath(t *testing.T) {
	Reset()
	defer Reset()

	if path := ConfigFilePath(); path != "" {
		t.Errorf("ConfigFilePath() = %s, want empty string", path)
	}

	configPath = "/some/test/path"

	if path := ConfigFilePath(); path != "/some/test/path" {
		t.Errorf("ConfigFilePath() = %s, want /some/test/path", path)
	}
}

func TestConstants(t *testing.T) {
	if AppName != "doppio-engine" {
		t.Errorf("AppName = %s, want doppio-engine", AppName)
	}

	if ConfigFileName != "config" {
		t.Errorf("ConfigFileName = %s, want config", ConfigFileName)
	}

	if ConfigFileExt != "toml" {
		t.Errorf("ConfigFileExt = %s, want toml", ConfigFileExt)
	}
}
