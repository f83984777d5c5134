// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrParsing reports failures that occur while decoding definition files.
	ErrParsing = errors.New("error parsing")
	// ErrNoPipelines reports a path without any pipeline definition.
	ErrNoPipelines = errors.New("no pipeline definitions found")

	definitionExtensions = []string{".yaml", ".yml", ".json"}
)

// LoadPaths reads every path with LoadPath and validates the whole set.
func LoadPaths(paths ...string) ([]*Pipeline, error) {
	pipelines := make([]*Pipeline, 0)
	for _, path := range paths {
		loaded, err := LoadPath(path)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, loaded...)
	}

	if len(pipelines) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPipelines, strings.Join(paths, ", "))
	}
	if err := Validate(pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// LoadPath parses the file or directory at path and returns the pipeline
// definitions it contains, without validating them. Directories are not read
// recursively and only files with a yaml, yml or json extension are considered.
func LoadPath(path string) ([]*Pipeline, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	pipelines := make([]*Pipeline, 0)
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(definitionExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}

		loaded, err := loadFile(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, loaded...)
	}
	return pipelines, nil
}

// loadFile decodes every document of the file at path.
func loadFile(path string) ([]*Pipeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	pipelines := make([]*Pipeline, 0)
	for {
		pipeline := new(Pipeline)
		err := decoder.Decode(&pipeline)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}

		// Skip empty documents.
		if pipeline == nil {
			continue
		}

		pipeline.file = path
		pipelines = append(pipelines, pipeline)
	}

	return pipelines, nil
}
