// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"doppio-engine/internal/skill"
)

func newDescribeCommand() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "describe <skill-file>",
		Short: "Render a skill's summary, variables and step graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(args[0], width)
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "word wrap width (0 for no wrap)")
	return cmd
}

func runDescribe(path string, width int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	sk, err := skill.ParseBytes(data)
	if err != nil {
		return err
	}

	out, err := renderMarkdown(describeMarkdown(sk), width)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// describeMarkdown builds the markdown document for a parsed skill:
// header, declared variables (sorted), then each step with its
// dependencies and operation kind.
func describeMarkdown(sk *skill.Skill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n\n", sk.Name, sk.Version)
	if sk.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", sk.Description)
	}
	if sk.Target != nil && sk.Target.MinGPUs > 0 {
		fmt.Fprintf(&b, "Requires at least **%d** GPU(s)", sk.Target.MinGPUs)
		if sk.Target.GPUModel != "" {
			fmt.Fprintf(&b, " (%s)", sk.Target.GPUModel)
		}
		b.WriteString(".\n\n")
	}

	if len(sk.Variables) > 0 {
		b.WriteString("## Variables\n\n")
		names := maps.Keys(sk.Variables)
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- `%s` = `%s`\n", name, sk.Variables[name])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Steps\n\n")
	for _, st := range sk.Steps {
		fmt.Fprintf(&b, "- `%s`: %s", st.ID, st.Operation.Kind())
		if len(st.DependsOn) > 0 {
			fmt.Fprintf(&b, " (after %s)", strings.Join(st.DependsOn, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMarkdown renders markdown for the terminal using glamour.
func renderMarkdown(content string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
