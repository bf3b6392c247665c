// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"doppio-engine/internal/config"
)

func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage doppio-engine configuration",
		Long: `Manage doppio-engine configuration.

Configuration is stored in:
  - Linux: ~/.config/doppio-engine/config.toml
  - macOS: ~/Library/Application Support/doppio-engine/config.toml
  - Windows: %APPDATA%\doppio-engine\config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfig(); err != nil {
				return err
			}
			cfgDir, _ := config.ConfigDir()
			fmt.Printf("%s Created default configuration at %s/%s.%s\n",
				successStyle.Render("✓"), cfgDir, config.ConfigFileName, config.ConfigFileExt)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration directory and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			dataDir, err := config.DataDir(config.Get())
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cmdStyle.Render("config dir:"), cfgDir)
			fmt.Printf("%s %s\n", cmdStyle.Render("data dir:  "), dataDir)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the currently loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	return cfgCmd
}

func showConfig() error {
	cfg := config.Get()

	fmt.Println(titleStyle.Render("Current Configuration"))
	fmt.Println()
	fmt.Printf("%s %d\n", cmdStyle.Render("scheduler.max_parallel_steps:"), cfg.Scheduler.MaxParallelSteps)
	fmt.Printf("%s %d\n", cmdStyle.Render("terminal.ring_buffer_cap_bytes:"), cfg.Terminal.RingBufferCapBytes)
	fmt.Printf("%s %d\n", cmdStyle.Render("terminal.max_scrollback_lines:"), cfg.Terminal.MaxScrollbackLines)
	fmt.Printf("%s %d\n", cmdStyle.Render("ssh.connect_timeout_secs:"), cfg.SSH.ConnectTimeoutSecs)
	fmt.Printf("%s %d\n", cmdStyle.Render("ssh.resolve_deadline_secs:"), cfg.SSH.ResolveDeadlineSecs)
	fmt.Printf("%s %d\n", cmdStyle.Render("ssh.vast_start_deadline_secs:"), cfg.SSH.VastStartDeadlineSecs)
	fmt.Printf("%s %d\n", cmdStyle.Render("log_store.default_chunk_bytes:"), cfg.LogStore.DefaultChunkBytes)
	fmt.Printf("%s %v\n", cmdStyle.Render("tail_server.enabled:"), cfg.TailServer.Enabled)
	fmt.Printf("%s %s\n", cmdStyle.Render("marketplace.base_url:"), cfg.Marketplace.BaseURL)
	fmt.Printf("%s %s\n", cmdStyle.Render("ui.color_scheme:"), cfg.UI.ColorScheme)
	return nil
}
