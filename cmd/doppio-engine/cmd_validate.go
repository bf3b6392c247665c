// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"doppio-engine/internal/skill"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <skill-file>",
		Short: "Parse a skill file and report structural errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	sk, err := skill.ParseBytes(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ parse failed: ")+err.Error())
		return err
	}

	report := skill.Validate(sk)
	if report.Valid {
		fmt.Println(successStyle.Render("✓") + fmt.Sprintf(" %s (%s): %d steps, valid", sk.Name, sk.Version, len(sk.Steps)))
	} else {
		fmt.Println(errorStyle.Render("✗ invalid skill: ") + sk.Name)
	}
	for _, e := range report.Errors {
		fmt.Println("  " + errorStyle.Render("error:") + " " + e)
	}
	for _, w := range report.Warnings {
		fmt.Println("  " + warningStyle.Render("warning:") + " " + w)
	}
	if !report.Valid {
		return fmt.Errorf("skill failed validation")
	}
	return nil
}
