package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoCollection = "survey_records"

type MongoSink struct {
	client  *mongo.Client
	records *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}
	return &MongoSink{
		client:  client,
		records: client.Database(database).Collection(mongoCollection),
	}, nil
}

// Append stores the record as a document with the same keys as the JSON line.
func (s *MongoSink) Append(ctx context.Context, line []byte) error {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(line, false, &doc); err != nil {
		return errors.Wrap(err, "decode record")
	}
	_, err := s.records.InsertOne(ctx, doc)
	return errors.Wrap(err, "insert survey record")
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
