// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `doppio-engine completion` command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for doppio-engine.

To enable shell completions, run one of the following commands:

` + subtitleStyle.Render("Bash:") + `
  # Add to ~/.bashrc:
  eval "$(doppio-engine completion bash)"

  # Or install system-wide:
  doppio-engine completion bash > /etc/bash_completion.d/doppio-engine

` + subtitleStyle.Render("Zsh:") + `
  # Add to ~/.zshrc:
  eval "$(doppio-engine completion zsh)"

  # Or install to fpath:
  doppio-engine completion zsh > "${fpath[1]}/_doppio-engine"

` + subtitleStyle.Render("Fish:") + `
  doppio-engine completion fish > ~/.config/fish/completions/doppio-engine.fish

` + subtitleStyle.Render("PowerShell:") + `
  doppio-engine completion powershell | Out-String | Invoke-Expression

  # Or add to $PROFILE:
  doppio-engine completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
