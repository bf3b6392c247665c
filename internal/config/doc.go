// SPDX-License-Identifier: MPL-2.0

// Package config handles engine process configuration using Viper with TOML
// as the file format.
//
// Configuration is loaded from ~/.config/doppio-engine/config.toml (or XDG
// equivalent on Linux, ~/Library/Application Support/doppio-engine/config.toml
// on macOS, %APPDATA%\doppio-engine\config.toml on Windows). The package
// provides type-safe configuration access for the scheduler's parallelism
// bound, terminal polling intervals, SSH connection defaults, log store
// chunk sizing, the optional remote-tail server, and CLI presentation.
package config
