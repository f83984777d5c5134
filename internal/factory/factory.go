// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package factory turns pipeline definitions into runnable pipelines. Building
// never opens a connection: connectors connect when a pipeline runs.
package factory

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mia-platform/etl/internal/config"
	"github.com/mia-platform/etl/internal/destination"
	destcsv "github.com/mia-platform/etl/internal/destination/csv"
	destmongo "github.com/mia-platform/etl/internal/destination/mongo"
	"github.com/mia-platform/etl/internal/destination/postgres"
	"github.com/mia-platform/etl/internal/destination/remote"
	destsql "github.com/mia-platform/etl/internal/destination/sql"
	"github.com/mia-platform/etl/internal/destination/writer"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation/builtin"
	"github.com/mia-platform/etl/internal/pipeline"
	"github.com/mia-platform/etl/internal/source"
	sourcecsv "github.com/mia-platform/etl/internal/source/csv"
	sourcemongo "github.com/mia-platform/etl/internal/source/mongo"
	"github.com/mia-platform/etl/internal/source/neo4j"
	sourcesql "github.com/mia-platform/etl/internal/source/sql"
	"github.com/mia-platform/etl/internal/source/xml"
)

// Options tune how definitions are built.
type Options struct {
	// Stdout and Stderr are the targets of the writer destination, os.Stdout and
	// os.Stderr when nil.
	Stdout io.Writer
	Stderr io.Writer
	// LocalOutput replaces every destination with a writer on Stdout.
	LocalOutput bool
}

func (o Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o Options) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

// Pipelines builds every definition, reporting all the failures together.
func Pipelines(definitions []*config.Pipeline, opts Options) ([]*pipeline.Pipeline, error) {
	pipelines := make([]*pipeline.Pipeline, 0, len(definitions))
	errs := make([]error, 0)
	for _, definition := range definitions {
		p, err := Pipeline(definition, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pipelines = append(pipelines, p)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// Pipeline builds the pipeline described by definition.
func Pipeline(definition *config.Pipeline, opts Options) (*pipeline.Pipeline, error) {
	extractor, err := Extractor(definition.Source)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: source: %w", definition.Name, err)
	}

	m, err := builtin.Build(definition.Manipulations)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: manipulations: %w", definition.Name, err)
	}

	var loader destination.Loader
	if opts.LocalOutput {
		loader = writer.NewLoader(opts.stdout())
	} else if loader, err = Loader(definition.Destination, opts); err != nil {
		return nil, fmt.Errorf("pipeline %s: destination: %w", definition.Name, err)
	}

	return pipeline.New(definition.Name, extractor, m, loader)
}

// Extractor builds the extractor selected by cfg.
func Extractor(cfg config.Source) (source.Extractor, error) {
	switch cfg.Type {
	case config.SourceCSV:
		if cfg.CSV == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asExtractor(sourcecsv.NewExtractor(*cfg.CSV))
	case config.SourceXML:
		if cfg.XML == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asExtractor(xml.NewExtractor(*cfg.XML))
	case config.SourceSQL:
		if cfg.SQL == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asExtractor(sourcesql.NewExtractor(*cfg.SQL))
	case config.SourceNeo4j:
		if cfg.Neo4j == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asExtractor(neo4j.NewExtractor(*cfg.Neo4j))
	case config.SourceMongo:
		if cfg.Mongo == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asExtractor(sourcemongo.NewExtractor(*cfg.Mongo))
	default:
		return nil, etlerr.InvalidConfiguration("unknown source type %q", cfg.Type)
	}
}

// Loader builds the loader selected by cfg.
func Loader(cfg config.Destination, opts Options) (destination.Loader, error) {
	switch cfg.Type {
	case config.DestinationCSV:
		if cfg.CSV == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asLoader(destcsv.NewLoader(*cfg.CSV))
	case config.DestinationWriter:
		return writerLoader(cfg.Writer, opts), nil
	case config.DestinationSQL:
		if cfg.SQL == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asLoader(destsql.NewLoader(*cfg.SQL))
	case config.DestinationPostgres:
		if cfg.Postgres == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asLoader(postgres.NewLoader(*cfg.Postgres))
	case config.DestinationMongo:
		if cfg.Mongo == nil {
			return nil, missingBlock(string(cfg.Type))
		}
		return asLoader(destmongo.NewLoader(*cfg.Mongo))
	case config.DestinationRemote:
		remoteConfig := remote.Config{}
		if cfg.Remote != nil {
			remoteConfig = *cfg.Remote
		}
		return asLoader(remote.NewLoader(remoteConfig))
	default:
		return nil, etlerr.InvalidConfiguration("unknown destination type %q", cfg.Type)
	}
}

func writerLoader(cfg *config.Writer, opts Options) destination.Loader {
	output := opts.stdout()
	indent := false
	if cfg != nil {
		if cfg.Output == "stderr" {
			output = opts.stderr()
		}
		indent = cfg.Indent
	}

	if indent {
		return writer.NewIndentedLoader(output)
	}
	return writer.NewLoader(output)
}

func missingBlock(kind string) error {
	return etlerr.InvalidConfiguration("the %s block is required", kind)
}

// asExtractor converts a constructor result, so that a failed construction
// never yields a non nil interface holding a nil pointer.
func asExtractor[T source.Extractor](extractor T, err error) (source.Extractor, error) {
	if err != nil {
		return nil, err
	}
	return extractor, nil
}

func asLoader[T destination.Loader](loader T, err error) (destination.Loader, error) {
	if err != nil {
		return nil, err
	}
	return loader, nil
}
