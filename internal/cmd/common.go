// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mia-platform/etl/internal/config"
)

var (
	errNoPipelineFiles = errors.New("no pipeline file provided")
	errUnknownPipeline = errors.New("unknown pipeline")
)

// handleError will do custom print error handling based on the type of error received.
// it will return nil if the command must return 0 exit code, otherwise it will return
// the original error.
func handleError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, errNoPipelineFiles):
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return nil
	case errors.Is(err, errUnknownPipeline):
		cmd.PrintErrln(err)
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return err
	default:
		cmd.PrintErrln(err)
		return err
	}
}

// validArgsFunc completes the names of the pipelines defined in the files
// already passed with the file flag.
func validArgsFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	paths, err := cmd.Flags().GetStringArray(pipelineFileFlagName)
	if err != nil || len(paths) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	definitions, err := config.LoadPaths(paths...)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var comps []string
	for _, definition := range definitions {
		if strings.HasPrefix(definition.Name, toComplete) && !slices.Contains(args, definition.Name) {
			comps = append(comps, cobra.CompletionWithDesc(definition.Name, definition.Description))
		}
	}
	return comps, cobra.ShellCompDirectiveNoFileComp
}
