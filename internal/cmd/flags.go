// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/mia-platform/etl/internal/factory"
)

const (
	pipelineFileFlagName  = "file"
	pipelineFileFlagShort = "f"
	pipelineFileFlagUsage = "Path to a file or directory containing pipeline definitions. Can be specified multiple times."

	localOutputFlagName  = "local-output"
	localOutputFlagUsage = "If set, writes the records to stdout instead of the configured destinations"
	defaultLocalOutput   = false
)

// flags collects the CLI options shared by the pipeline commands.
type flags struct {
	paths       []string
	localOutput bool
}

// addFlags registers the CLI flags on cmd. The local output flag is skipped
// when withLocalOutput is false.
func (f *flags) addFlags(cmd *cobra.Command, withLocalOutput bool) {
	cmd.Flags().StringArrayVarP(
		&f.paths,
		pipelineFileFlagName,
		pipelineFileFlagShort,
		nil,
		pipelineFileFlagUsage)

	if withLocalOutput {
		cmd.Flags().BoolVar(&f.localOutput, localOutputFlagName, defaultLocalOutput, localOutputFlagUsage)
	}
}

// toOptions builds an options instance from the parsed flags and CLI arguments.
func (f *flags) toOptions(cmd *cobra.Command, args []string) *options {
	return &options{
		paths: slices.Clone(f.paths),
		names: slices.Compact(slices.Sorted(slices.Values(args))),
		factoryOptions: factory.Options{
			Stdout:      cmd.OutOrStdout(),
			Stderr:      cmd.ErrOrStderr(),
			LocalOutput: f.localOutput,
		},
	}
}
