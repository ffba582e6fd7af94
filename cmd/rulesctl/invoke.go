package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"candlepin/internal/platform/logger"
	"candlepin/internal/rules"
	"candlepin/internal/rules/models"
)

type invokeOptions struct {
	RulesPath string
	Function  string
	Context   string
	Timeout   time.Duration
}

func newInvokeCmd(root *rootFlags) *cobra.Command {
	opts := invokeOptions{}

	cmd := &cobra.Command{
		Use:   "invoke <rules-file> <function>",
		Short: "Run one rule function against a JSON context and print its result",
		Long: `Invoke compiles the rules file in the same sandbox the server uses and
calls the named function with the given context. A function the file does
not define prints null.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RulesPath = args[0]
			opts.Function = args[1]
			return runInvoke(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "{}", "JSON context passed to the function")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Invocation timeout")

	return cmd
}

func runInvoke(cmd *cobra.Command, root *rootFlags, opts invokeOptions) error {
	if !json.Valid([]byte(opts.Context)) {
		return fmt.Errorf("--context is not valid JSON")
	}
	body, version, err := readRules(opts.RulesPath)
	if err != nil {
		return err
	}

	host, err := rules.New(fileSource{rules: models.Rules{
		Version:   version,
		Source:    models.SourceDatabase,
		Body:      body,
		UpdatedAt: time.Unix(1, 0),
	}}, rules.WithLogger(logger.NewWithWriter(cmd.ErrOrStderr(), root.logLevel)))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()
	if err := host.Refresh(ctx); err != nil {
		return err
	}
	out, err := host.Invoke(ctx, opts.Function, json.RawMessage(opts.Context))
	if err != nil {
		return err
	}
	if out == nil {
		out = json.RawMessage("null")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// fileSource serves one rules file that never changes.
type fileSource struct {
	rules models.Rules
}

func (s fileSource) Rules(context.Context) (*models.Rules, error) {
	r := s.rules
	return &r, nil
}

func (s fileSource) UpdatedAt(context.Context) (time.Time, error) {
	return s.rules.UpdatedAt, nil
}
