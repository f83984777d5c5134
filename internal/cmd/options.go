// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mia-platform/etl/internal/config"
	"github.com/mia-platform/etl/internal/factory"
	"github.com/mia-platform/etl/internal/pipeline"
)

// options holds what a pipeline command needs to build its pipelines.
type options struct {
	paths          []string
	names          []string
	factoryOptions factory.Options
}

// validate checks the configured values and reports invalid setups.
func (o *options) validate() error {
	if len(o.paths) == 0 {
		return errNoPipelineFiles
	}
	return nil
}

// definitions loads the pipeline definitions, keeping only the selected names
// when any was given.
func (o *options) definitions() ([]*config.Pipeline, error) {
	definitions, err := config.LoadPaths(o.paths...)
	if err != nil {
		return nil, err
	}
	if len(o.names) == 0 {
		return definitions, nil
	}

	missing := slices.DeleteFunc(slices.Clone(o.names), func(name string) bool {
		return slices.ContainsFunc(definitions, func(definition *config.Pipeline) bool {
			return definition.Name == name
		})
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", errUnknownPipeline, strings.Join(missing, ", "))
	}

	return slices.DeleteFunc(definitions, func(definition *config.Pipeline) bool {
		return !slices.Contains(o.names, definition.Name)
	}), nil
}

// pipelines loads and builds the selected pipelines.
func (o *options) pipelines() ([]*config.Pipeline, []*pipeline.Pipeline, error) {
	definitions, err := o.definitions()
	if err != nil {
		return nil, nil, err
	}

	pipelines, err := factory.Pipelines(definitions, o.factoryOptions)
	if err != nil {
		return nil, nil, err
	}
	return definitions, pipelines, nil
}
