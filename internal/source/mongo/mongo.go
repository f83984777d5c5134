// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package mongo implements an extractor reading the documents of a MongoDB
// collection. Top level document fields become record fields, in document order.
package mongo

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mia-platform/etl/internal/connection"
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/record"
	"github.com/mia-platform/etl/internal/source"
)

const (
	connectorName = "mongo"
	loggerName    = "etl:source:mongo"

	defaultTimeout = 10 * time.Second
)

// Config holds the extractor settings.
type Config struct {
	Connection connection.Params `json:"connection" yaml:"connection"`
	Collection string            `json:"collection" yaml:"collection" validate:"required"`
	// Filter is a MongoDB Extended JSON document, all documents when empty.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`
	// Sort is a MongoDB Extended JSON document, natural order when empty.
	Sort string `json:"sort,omitempty" yaml:"sort,omitempty"`
	// Timeout bounds server selection, 10 seconds when zero.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

var _ source.Extractor = &Extractor{}

// Extractor runs a find on its collection on every Extract call.
type Extractor struct {
	config Config
	filter bson.D
	sort   bson.D
}

// NewExtractor validates config, parsing filter and sort, and returns an Extractor.
func NewExtractor(config Config) (*Extractor, error) {
	if config.Collection == "" {
		return nil, etlerr.InvalidConfiguration("mongo source requires a collection")
	}
	if config.Connection.Database == "" {
		return nil, etlerr.InvalidConfiguration("mongo source requires a database")
	}

	filter, err := ParseDocument(config.Filter)
	if err != nil {
		return nil, etlerr.InvalidConfiguration("mongo filter: %s", err)
	}
	sort, err := ParseDocument(config.Sort)
	if err != nil {
		return nil, etlerr.InvalidConfiguration("mongo sort: %s", err)
	}

	return &Extractor{config: config, filter: filter, sort: sort}, nil
}

// Extract reads all the documents matching the filter.
func (e *Extractor) Extract(ctx context.Context) (record.Sequence, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	client, err := Connect(ctx, e.config.Connection, e.config.Timeout)
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	defer func() {
		if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
			log.Warn("error disconnecting from mongo", "error", err)
		}
	}()

	findOptions := options.Find()
	if len(e.sort) > 0 {
		findOptions.SetSort(e.sort)
	}

	collection := client.Database(e.config.Connection.Database).Collection(e.config.Collection)
	cursor, err := collection.Find(ctx, e.filter, findOptions)
	if err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}
	defer cursor.Close(ctx)

	records := make(record.Sequence, 0)
	for cursor.Next(ctx) {
		var document bson.D
		if err := cursor.Decode(&document); err != nil {
			return nil, etlerr.Format(connectorName, err)
		}
		records = append(records, DocumentToRecord(document))
	}
	if err := cursor.Err(); err != nil {
		return nil, etlerr.SourceUnavailable(connectorName, err)
	}

	log.Debug("mongo collection read", "collection", e.config.Collection, "records", len(records))
	return records, nil
}

// Connect returns a client that already answered a ping.
func Connect(ctx context.Context, params connection.Params, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	clientOptions := options.Client().
		ApplyURI(params.MongoURI()).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout).
		SetAppName("etl")

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return client, nil
}

// ParseDocument decodes a relaxed Extended JSON document, an empty document
// when text is empty.
func ParseDocument(text string) (bson.D, error) {
	document := bson.D{}
	if text == "" {
		return document, nil
	}
	if err := bson.UnmarshalExtJSON([]byte(text), false, &document); err != nil {
		return nil, err
	}
	return document, nil
}

// DocumentToRecord converts a document to a record. Object ids become their hex
// text, dates RFC3339 text, nested documents and arrays relaxed Extended JSON.
func DocumentToRecord(document bson.D) *record.Record {
	r := record.New()
	for _, element := range document {
		r.Set(element.Key, documentValue(element.Value))
	}
	return r
}

func documentValue(value any) any {
	switch v := value.(type) {
	case bson.ObjectID:
		return v.Hex()
	case bson.DateTime:
		return record.Normalize(v.Time())
	case bson.Null, bson.Undefined:
		return nil
	case bson.D, bson.M:
		return extendedJSON(v)
	case bson.A:
		return extendedJSON(v)
	default:
		return record.Normalize(v)
	}
}

// extendedJSON encodes a nested value as relaxed Extended JSON. Arrays are not
// documents, so they are encoded inside a wrapper and then extracted.
func extendedJSON(value any) any {
	if _, isArray := value.(bson.A); !isArray {
		data, err := bson.MarshalExtJSON(value, false, false)
		if err != nil {
			return record.Normalize(value)
		}
		return string(data)
	}

	data, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: value}}, false, false)
	if err != nil {
		return record.Normalize(value)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return string(data)
	}
	return string(wrapper["v"])
}
