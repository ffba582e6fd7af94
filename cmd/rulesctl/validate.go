package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"candlepin/internal/rules"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules-file>",
		Short: "Check that a rules file compiles and report the functions it defines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, version, err := readRules(args[0])
			if err != nil {
				return err
			}
			functions, err := rules.Validate(body)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version:   %s\n", version)
			fmt.Fprintf(out, "functions: %s\n", strings.Join(functions, ", "))
			return nil
		},
	}
}
