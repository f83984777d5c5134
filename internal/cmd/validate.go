// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

const (
	validateCmdUsage = "validate [PIPELINE...]"
	validateCmdShort = "check pipeline definitions"
	validateCmdLong  = `Check the pipeline definitions contained in the given files.
	Every definition is parsed, validated and built, without connecting to any
	source or destination. All the problems found are reported together.`

	validateCmdExample = `# Check every definition in a directory
	etl validate -f pipelines/`
)

// ValidateCmd return the "validate" cli command for checking pipeline definitions.
func ValidateCmd() *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     validateCmdUsage,
		Short:   heredoc.Doc(validateCmdShort),
		Long:    heredoc.Doc(validateCmdLong),
		Example: heredoc.Doc(validateCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: validArgsFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.toOptions(cmd, args)
			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.check(cmd.OutOrStdout()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd, false)
	return cmd
}

// check builds the selected pipelines and prints a line for each of them.
func (o *options) check(out io.Writer) error {
	definitions, _, err := o.pipelines()
	if err != nil {
		return err
	}

	for _, definition := range definitions {
		fmt.Fprintf(out, "%s: %s -> %s (%d manipulations)\n",
			definition.Name,
			definition.Source.Type,
			definition.Destination.Type,
			len(definition.Manipulations),
		)
	}
	return nil
}
