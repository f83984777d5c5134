// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package mongo implements a loader inserting records as documents of a MongoDB
// collection, one document per record with the fields in record order.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/destination"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
	mongosource "github.com/mia-platform/etl/internal/source/mongo"
)

const (
	connectorName = "mongo"
	loggerName    = "etl:destination:mongo"
)

// Config holds the loader settings.
type Config struct {
	Connection connection.Params `json:"connection" yaml:"connection"`
	Collection string            `json:"collection" yaml:"collection" validate:"required"`
	Mode       destination.Mode  `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=overwrite append"`
	Timeout    time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

var _ destination.Loader = &Loader{}

// Loader writes records to a collection. In overwrite mode every document of
// the collection is deleted before inserting. Standalone servers have no
// multi-document transactions, so an insert failure can leave the collection
// partially written.
type Loader struct {
	config Config
	mode   destination.Mode
}

// NewLoader validates config and returns a Loader.
func NewLoader(config Config) (*Loader, error) {
	if config.Collection == "" {
		return nil, etlerr.InvalidConfiguration("mongo destination requires a collection")
	}
	if config.Connection.Database == "" {
		return nil, etlerr.InvalidConfiguration("mongo destination requires a database")
	}
	mode, err := destination.ParseMode(string(config.Mode))
	if err != nil {
		return nil, err
	}
	return &Loader{config: config, mode: mode}, nil
}

// Load implements destination.Loader.
func (l *Loader) Load(ctx context.Context, records record.Sequence) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	documents := make([]bson.D, len(records))
	for idx, r := range records {
		documents[idx] = RecordToDocument(r)
	}

	client, err := mongosource.Connect(ctx, l.config.Connection, l.config.Timeout)
	if err != nil {
		return etlerr.DestinationUnavailable(connectorName, err)
	}
	defer func() {
		if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
			log.Warn("error disconnecting from mongo", "error", err)
		}
	}()

	collection := client.Database(l.config.Connection.Database).Collection(l.config.Collection)
	if l.mode == destination.ModeOverwrite {
		result, err := collection.DeleteMany(ctx, bson.D{})
		if err != nil {
			return etlerr.DestinationUnavailable(connectorName, err)
		}
		log.Trace("collection emptied", "collection", l.config.Collection, "deleted", result.DeletedCount)
	}

	if len(documents) > 0 {
		if _, err := collection.InsertMany(ctx, documents, options.InsertMany().SetOrdered(true)); err != nil {
			return etlerr.DestinationUnavailable(connectorName, err)
		}
	}

	log.Debug("collection written", "collection", l.config.Collection, "mode", l.mode, "records", len(documents))
	return nil
}

// RecordToDocument converts a record into a document keeping the field order.
func RecordToDocument(r *record.Record) bson.D {
	document := make(bson.D, 0, r.Len())
	r.Each(func(field string, value any) bool {
		document = append(document, bson.E{Key: field, Value: value})
		return true
	})
	return document
}
