// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mia-platform/etl/internal/logger"
)

const (
	runCmdUsage = "run [PIPELINE...]"
	runCmdShort = "run pipelines once"
	runCmdLong  = `Run once the pipelines defined in the given files.
	Every pipeline extracts its records, applies its manipulations and loads the
	result into its destination. Pipelines run one after the other, in the order
	they are defined, and a failing pipeline does not stop the following ones.

	When pipeline names are passed only those pipelines run.`

	runCmdExample = `# Run every pipeline defined in a file
	etl run -f pipelines.yaml

	# Run a single pipeline, printing the records instead of loading them
	etl run -f pipelines/ orders --local-output`

	runLoggerName = "etl:run"
)

// RunCmd return the "run" cli command for running pipelines once.
func RunCmd() *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     runCmdUsage,
		Short:   heredoc.Doc(runCmdShort),
		Long:    heredoc.Doc(runCmdLong),
		Example: heredoc.Doc(runCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: validArgsFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.toOptions(cmd, args)
			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.run(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd, true)
	return cmd
}

// run builds every selected pipeline and runs them sequentially.
func (o *options) run(ctx context.Context) error {
	_, pipelines, err := o.pipelines()
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx).WithName(runLoggerName)
	errs := make([]error, 0)
	for _, p := range pipelines {
		if err := p.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pipeline %s: %w", p.Name(), err))
		}
	}

	log.Info("pipelines executed", "pipelines", len(pipelines), "failed", len(errs))
	return errors.Join(errs...)
}
