// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestProvider_Load_DefaultsWhenDirEmpty(t *testing.T) {
	t.Parallel()

	p := NewProvider()
	tmpDir := t.TempDir()

	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: tmpDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Scheduler.MaxParallelSteps != defaults.Scheduler.MaxParallelSteps {
		t.Errorf("MaxParallelSteps = %d, want %d", cfg.Scheduler.MaxParallelSteps, defaults.Scheduler.MaxParallelSteps)
	}
}

func TestProvider_Load_ExplicitConfigFilePath(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "custom.toml")
	contents := "data_dir = \"/srv/doppio\"\n\n[scheduler]\nmax_parallel_steps = 12\n"
	if err := os.WriteFile(cfgPath, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigFilePath: cfgPath})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.DataDir != "/srv/doppio" {
		t.Errorf("DataDir = %s, want /srv/doppio", cfg.DataDir)
	}
	if cfg.Scheduler.MaxParallelSteps != 12 {
		t.Errorf("MaxParallelSteps = %d, want 12", cfg.Scheduler.MaxParallelSteps)
	}
}

func TestProvider_Load_ConfigDirPath(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, ConfigFileName+"."+ConfigFileExt)
	contents := "[ssh]\nconnect_timeout_secs = 45\n"
	if err := os.WriteFile(cfgPath, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: tmpDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.SSH.ConnectTimeoutSecs != 45 {
		t.Errorf("ConnectTimeoutSecs = %d, want 45", cfg.SSH.ConnectTimeoutSecs)
	}
}

func TestLoadWithOptions_ReturnsResolvedPath(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(cfgPath, []byte("data_dir = \"/x\"\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, used, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: tmpDir})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if cfg.DataDir != "/x" {
		t.Errorf("DataDir = %s, want /x", cfg.DataDir)
	}
	if used == "" {
		t.Error("expected a non-empty resolved config path")
	}
}
