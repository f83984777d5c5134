// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package csv implements a loader writing records to a delimited text file.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
)

const (
	connectorName = "csv"
	loggerName    = "etl:destination:csv"

	defaultFileMode os.FileMode = 0o644
)

// Config holds the loader settings.
type Config struct {
	Path      string           `json:"path" yaml:"path" validate:"required"`
	Delimiter string           `json:"delimiter,omitempty" yaml:"delimiter,omitempty" validate:"omitempty,len=1"`
	Mode      destination.Mode `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=overwrite append"`
}

var _ destination.Loader = &Loader{}

// Loader writes records as csv rows below a header row. The header is the
// ordered union of the record fields. In append mode the header already in the
// file is kept and records cannot introduce new fields.
type Loader struct {
	path      string
	delimiter rune
	mode      destination.Mode
}

// NewLoader validates config and returns a Loader.
func NewLoader(config Config) (*Loader, error) {
	if config.Path == "" {
		return nil, etlerr.InvalidConfiguration("csv destination requires a path")
	}

	mode, err := destination.ParseMode(string(config.Mode))
	if err != nil {
		return nil, err
	}

	delimiter := ','
	if config.Delimiter != "" {
		if utf8.RuneCountInString(config.Delimiter) != 1 {
			return nil, etlerr.InvalidConfiguration("csv delimiter must be a single character, got %q", config.Delimiter)
		}
		delimiter, _ = utf8.DecodeRuneInString(config.Delimiter)
	}

	return &Loader{path: config.Path, delimiter: delimiter, mode: mode}, nil
}

// Load implements destination.Loader.
func (l *Loader) Load(ctx context.Context, records record.Sequence) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}

	var err error
	if l.mode == destination.ModeAppend {
		err = l.appendRecords(records)
	} else {
		err = l.overwrite(records)
	}
	if err != nil {
		return err
	}

	logger.FromContext(ctx).WithName(loggerName).Debug("csv file written", "path", l.path, "mode", l.mode, "records", len(records))
	return nil
}

// overwrite writes into a temporary file moved over the destination only when
// complete, so a failed load leaves the previous content untouched.
func (l *Loader) overwrite(records record.Sequence) error {
	file, err := os.CreateTemp(filepath.Dir(l.path), "."+filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	tempPath := file.Name()
	defer os.Remove(tempPath)

	if err := file.Chmod(l.fileMode()); err != nil {
		file.Close()
		return etlerr.DestinationUnavailable(connectorName, err)
	}

	header := records.Fields()
	if err := l.write(file, header, len(header) > 0, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}

	if err := os.Rename(tempPath, l.path); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	return nil
}

// fileMode keeps the permissions of the file being replaced, defaultFileMode
// for a new one.
func (l *Loader) fileMode() os.FileMode {
	info, err := os.Stat(l.path)
	if err != nil {
		return defaultFileMode
	}
	return info.Mode().Perm()
}

func (l *Loader) appendRecords(records record.Sequence) error {
	header, err := l.existingHeader()
	if err != nil {
		return err
	}

	writeHeader := header == nil
	if writeHeader {
		header = records.Fields()
	} else if extra := missingFields(header, records.Fields()); len(extra) > 0 {
		return etlerr.Format(connectorName, fmt.Errorf("fields %v are not in the header of %s", extra, l.path))
	}

	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, defaultFileMode)
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	if err := l.write(file, header, writeHeader && len(header) > 0, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	return nil
}

// existingHeader returns the first row of the destination file, nil when the
// file is missing or empty.
func (l *Loader) existingHeader() ([]string, error) {
	file, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, etlerr.DestinationUnavailable(connectorName, err)
	}
	defer file.Close()

	reader := stdcsv.NewReader(file)
	reader.Comma = l.delimiter
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, etlerr.Format(connectorName, err)
	}
	return header, nil
}

// write serializes the rows, then flushes and syncs the file.
func (l *Loader) write(file *os.File, header []string, writeHeader bool, records record.Sequence) error {
	writer := stdcsv.NewWriter(file)
	writer.Comma = l.delimiter

	if writeHeader {
		if err := writer.Write(header); err != nil {
			return etlerr.DestinationUnavailable(connectorName, err)
		}
	}

	row := make([]string, len(header))
	for idx, r := range records {
		for column, field := range header {
			value, err := formatValue(r.Value(field))
			if err != nil {
				return etlerr.Format(connectorName, fmt.Errorf("record %d field %q: %w", idx, field, err))
			}
			row[column] = value
		}
		if err := writer.Write(row); err != nil {
			return etlerr.DestinationUnavailable(connectorName, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	if err := file.Sync(); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	return nil
}

// formatValue renders a record value as csv text, nil being the empty string.
func formatValue(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return cast.ToStringE(value)
}

func missingFields(header, fields []string) []string {
	extra := make([]string, 0)
	for _, field := range fields {
		if !slices.Contains(header, field) {
			extra = append(extra, field)
		}
	}
	return extra
}
