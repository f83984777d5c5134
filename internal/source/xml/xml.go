// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package xml implements an extractor reading records from xml documents,
// local or served over http(s).
package xml

import (
	"context"
	stdxml "encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

const (
	connectorName = "xml"
	loggerName    = "etl:source:xml"

	// DefaultRecordElement is the element name used when none is configured.
	DefaultRecordElement = "record"
)

// Config holds the extractor settings.
type Config struct {
	source.Location `yaml:",inline"`

	// RecordElement is the local name of the elements turned into records.
	RecordElement string `json:"recordElement,omitempty" yaml:"recordElement,omitempty"`
	// IncludeAttributes adds the attributes of the record element as fields,
	// before the child elements.
	IncludeAttributes bool `json:"includeAttributes,omitempty" yaml:"includeAttributes,omitempty"`
}

var _ source.Extractor = &Extractor{}

// Extractor turns every record element of a document, at any depth, into a
// record. Each child element becomes a field named after its tag, holding its
// text or nil when it has none. A repeated tag keeps the last value.
type Extractor struct {
	config Config
}

// NewExtractor validates config and returns an Extractor.
func NewExtractor(config Config) (*Extractor, error) {
	if config.Path == "" {
		return nil, etlerr.InvalidConfiguration("xml source requires a path")
	}
	if config.RecordElement == "" {
		config.RecordElement = DefaultRecordElement
	}
	return &Extractor{config: config}, nil
}

// Extract reads the whole document and returns its records in document order.
func (e *Extractor) Extract(ctx context.Context) (record.Sequence, error) {
	file, err := source.Open(ctx, e.config.Location)
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	defer file.Close()

	decoder := stdxml.NewDecoder(file)
	decoder.CharsetReader = charsetReader

	records, err := e.decode(ctx, decoder)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithName(loggerName).Debug("xml document read", "path", e.config.Path, "records", len(records))
	return records, nil
}

func (e *Extractor) decode(ctx context.Context, decoder *stdxml.Decoder) (record.Sequence, error) {
	records := make(record.Sequence, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, etlerr.SourceUnavailable(connectorName, err)
		}

		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, decodeError(err)
		}

		start, ok := token.(stdxml.StartElement)
		if !ok || start.Name.Local != e.config.RecordElement {
			continue
		}

		r, err := e.readRecord(decoder, start)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
}

// readRecord consumes the tokens up to the end of the record element.
func (e *Extractor) readRecord(decoder *stdxml.Decoder, start stdxml.StartElement) (*record.Record, error) {
	r := record.New()
	if e.config.IncludeAttributes {
		for _, attr := range start.Attr {
			r.Set(attr.Name.Local, attr.Value)
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, decodeError(err)
		}

		switch element := token.(type) {
		case stdxml.StartElement:
			value, err := readField(decoder)
			if err != nil {
				return nil, err
			}
			r.Set(element.Name.Local, value)
		case stdxml.EndElement:
			return r, nil
		}
	}
}

// readField returns the text placed directly inside the current element. Text
// of elements holding other elements is trimmed, since it is mostly indentation.
func readField(decoder *stdxml.Decoder) (any, error) {
	text := new(strings.Builder)
	hasText := false
	hasChildren := false
	depth := 0

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, decodeError(err)
		}

		switch content := token.(type) {
		case stdxml.CharData:
			if depth == 0 {
				hasText = true
				text.Write(content)
			}
		case stdxml.StartElement:
			hasChildren = true
			depth++
		case stdxml.EndElement:
			if depth > 0 {
				depth--
				continue
			}
			if !hasText {
				return nil, nil
			}
			if hasChildren {
				return strings.TrimSpace(text.String()), nil
			}
			return text.String(), nil
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	encoding, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return transform.NewReader(input, encoding.NewDecoder()), nil
}

// decodeError reports broken content as a format error. Only interrupted reads
// are a source failure.
func decodeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return etlerr.SourceUnavailable(connectorName, err)
	}
	return etlerr.Format(connectorName, err)
}
