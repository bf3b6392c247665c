// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/charmbracelet/lipgloss"

// Style definitions for the CLI's terminal output.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))
	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
	cmdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))
)
