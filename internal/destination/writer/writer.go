// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/record"
)

const connectorName = "writer"

var _ destination.Loader = &writerLoader{}

type writerLoader struct {
	writer io.Writer
	indent bool

	lock sync.Mutex
}

// NewLoader returns a Loader writing one JSON object per record on w.
func NewLoader(w io.Writer) destination.Loader {
	return &writerLoader{
		writer: w,
	}
}

// NewIndentedLoader returns a Loader writing indented JSON objects on w.
func NewIndentedLoader(w io.Writer) destination.Loader {
	return &writerLoader{
		writer: w,
		indent: true,
	}
}

func (l *writerLoader) Load(ctx context.Context, records record.Sequence) error {
	buffer := new(bytes.Buffer)
	encoder := json.NewEncoder(buffer)
	if l.indent {
		encoder.SetIndent("", "\t")
	}

	for idx, r := range records {
		if err := ctx.Err(); err != nil {
			return etlerr.DestinationUnavailable(connectorName, err)
		}
		if err := encoder.Encode(r); err != nil {
			return etlerr.Format(connectorName, fmt.Errorf("record %d: %w", idx, err))
		}
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	if _, err := l.writer.Write(buffer.Bytes()); err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	return nil
}
