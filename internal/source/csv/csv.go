// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package csv implements an extractor reading records from delimited text
// files, local or served over http(s). The first row holds the field names.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

const (
	connectorName = "csv"
	loggerName    = "etl:source:csv"
)

// Config holds the extractor settings.
type Config struct {
	source.Location `yaml:",inline"`

	// Delimiter is the single character separating values, a comma when empty.
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty" validate:"omitempty,len=1"`
	// InferTypes turns numeric and boolean text into numbers and booleans.
	InferTypes bool `json:"inferTypes,omitempty" yaml:"inferTypes,omitempty"`
	// TrimLeadingSpace ignores the spaces before every value.
	TrimLeadingSpace bool `json:"trimLeadingSpace,omitempty" yaml:"trimLeadingSpace,omitempty"`
}

var _ source.Extractor = &Extractor{}

// Extractor reads the records of a csv file.
type Extractor struct {
	config    Config
	delimiter rune
}

// NewExtractor validates config and returns an Extractor.
func NewExtractor(config Config) (*Extractor, error) {
	if config.Path == "" {
		return nil, etlerr.InvalidConfiguration("csv source requires a path")
	}

	delimiter := ','
	if config.Delimiter != "" {
		if utf8.RuneCountInString(config.Delimiter) != 1 {
			return nil, etlerr.InvalidConfiguration("csv delimiter must be a single character, got %q", config.Delimiter)
		}
		delimiter, _ = utf8.DecodeRuneInString(config.Delimiter)
	}

	return &Extractor{config: config, delimiter: delimiter}, nil
}

// Extract reads every row after the header as a record. Rows shorter than the
// header get nil values for the missing fields. An empty file gives no records.
func (e *Extractor) Extract(ctx context.Context) (record.Sequence, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	file, err := source.OpenText(ctx, e.config.Location)
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	defer file.Close()

	reader := stdcsv.NewReader(file)
	reader.Comma = e.delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = e.config.TrimLeadingSpace
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		log.Debug("empty csv file", "path", e.config.Path)
		return record.Sequence{}, nil
	}
	if err != nil {
		return nil, readError(err)
	}

	fields, err := fieldNames(header)
	if err != nil {
		return nil, etlerr.Format(connectorName, err)
	}

	records := make(record.Sequence, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, etlerr.SourceUnavailable(connectorName, err)
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}

		if len(row) > len(fields) {
			line, _ := reader.FieldPos(0)
			return nil, etlerr.Format(connectorName, fmt.Errorf("line %d has %d values, header has %d fields", line, len(row), len(fields)))
		}

		r := record.New()
		for idx, field := range fields {
			if idx >= len(row) {
				r.Set(field, nil)
				continue
			}
			if e.config.InferTypes {
				r.Set(field, record.Infer(row[idx]))
			} else {
				r.Set(field, row[idx])
			}
		}
		records = append(records, r)
	}

	log.Debug("csv file read", "path", e.config.Path, "records", len(records))
	return records, nil
}

// fieldNames copies the header row, naming empty columns after their position.
func fieldNames(header []string) ([]string, error) {
	fields := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for idx, name := range header {
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}
		if _, duplicated := seen[name]; duplicated {
			return nil, fmt.Errorf("duplicated header field %q", name)
		}
		seen[name] = struct{}{}
		fields[idx] = name
	}
	return fields, nil
}

func readError(err error) error {
	var parseErr *stdcsv.ParseError
	if errors.As(err, &parseErr) {
		return etlerr.Format(connectorName, err)
	}
	return etlerr.SourceUnavailable(connectorName, err)
}
