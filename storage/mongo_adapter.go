package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionMismatch is returned by Load when a document's stored envelope
// no longer matches the unique id Save recorded for it, e.g. because
// something wrote to the collection outside of this adapter.
var ErrVersionMismatch = errors.New("storage: stored container does not match its recorded unique id")

// historyLimit bounds how many prior unique ids Save retains per document.
const historyLimit = 10

// MongoAdapter implements URIAdapter against a MongoDB collection: a uri is
// the document's logical _id, and the whole envelope is stored as a single
// binary field. Unlike a generic blob store, Save and Load both interpret
// the envelope as a SQRL container: Save records the container's UniqueID
// and appends it to a bounded rotation history, and Load cross-checks a
// freshly parsed container against that recorded id.
type MongoAdapter struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoAdapter connects to uri and returns an adapter backed by
// dbName.collName. It pings the connection with a short timeout before
// returning.
func NewMongoAdapter(ctx context.Context, uri, dbName, collName string) (*MongoAdapter, error) {
	if uri == "" {
		return nil, errors.New("storage: mongo uri is empty")
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}

	coll := cli.Database(dbName).Collection(collName)
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoAdapter{client: cli, coll: coll}, nil
}

func (m *MongoAdapter) Load(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		return nil, errors.New("storage: empty uri")
	}
	var doc struct {
		Data     []byte `bson:"data"`
		UniqueID string `bson:"uniqueId"`
	}
	err := m.coll.FindOne(ctx, bson.M{"_id": uri}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New("storage: container not found")
	}
	if err != nil {
		return nil, err
	}
	if doc.UniqueID != "" {
		var parsed Storage
		if perr := parsed.Load(doc.Data); perr == nil && parsed.UniqueID() != doc.UniqueID {
			return nil, ErrVersionMismatch
		}
	}
	return doc.Data, nil
}

// Save upserts data under uri, recording the container's UniqueID (parsed
// from the type-0 block, if present) alongside it and pushing that id onto a
// bounded rotation history so callers can later inspect how the identity's
// container has changed over successive rekeys (see History).
func (m *MongoAdapter) Save(ctx context.Context, uri string, data []byte) error {
	if uri == "" {
		return errors.New("storage: empty uri")
	}
	var parsed Storage
	var uniqueID string
	if err := parsed.Load(data); err == nil {
		uniqueID = parsed.UniqueID()
	}

	update := bson.M{
		"$set": bson.M{
			"data":      data,
			"uniqueId":  uniqueID,
			"updatedAt": time.Now(),
		},
		"$setOnInsert": bson.M{
			"createdAt": time.Now(),
		},
	}
	if uniqueID != "" {
		update["$push"] = bson.M{
			"history": bson.M{"$each": bson.A{uniqueID}, "$slice": -historyLimit},
		}
	}

	_, err := m.coll.UpdateByID(ctx, uri, update, options.Update().SetUpsert(true))
	return err
}

// History returns the bounded list of unique ids Save has recorded for uri,
// oldest first, letting a caller audit how many times a container has been
// rekeyed without fetching and re-parsing every historical envelope.
func (m *MongoAdapter) History(ctx context.Context, uri string) ([]string, error) {
	if uri == "" {
		return nil, errors.New("storage: empty uri")
	}
	var doc struct {
		History []string `bson:"history"`
	}
	err := m.coll.FindOne(ctx, bson.M{"_id": uri}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New("storage: container not found")
	}
	return doc.History, err
}

// Close disconnects the underlying Mongo client.
func (m *MongoAdapter) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
