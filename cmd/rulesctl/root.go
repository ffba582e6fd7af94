package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"candlepin/internal/rules"
)

type rootFlags struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "rulesctl",
		Short:         "rulesctl validates, tries out and publishes compliance rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newInvokeCmd(flags))
	cmd.AddCommand(newPublishCmd(flags))

	return cmd
}

// readRules loads a rules file and checks its version header.
func readRules(path string) (body, version string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read rules file: %w", err)
	}
	body = string(raw)
	version, err = rules.VersionFromBody(body)
	if err != nil {
		return "", "", err
	}
	return body, version, nil
}
