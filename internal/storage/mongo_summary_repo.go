package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/teemap/internal/teemap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB summary repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. teemap
	Collection string // e.g. summaries
}

// MongoSummaryRepo implements SummaryRepo on MongoDB. Documents are keyed by
// the hex checksum since BSON has no unsigned 64-bit integer.
type MongoSummaryRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type summaryDoc struct {
	ID      string         `bson:"_id"`
	Author  string         `bson:"author"`
	Summary teemap.Summary `bson:"summary"`
}

// NewMongoSummaryRepo establishes connection and returns repository.
func NewMongoSummaryRepo(cfg MongoConfig) (*MongoSummaryRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "teemap"
	}
	if cfg.Collection == "" {
		cfg.Collection = "summaries"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	repo := &MongoSummaryRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

func (m *MongoSummaryRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	authorIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "author", Value: 1}},
		Options: options.Index().SetName("author"),
	}
	_, err := m.collection.Indexes().CreateOne(ctx, authorIdx)
	return err
}

// Save implements SummaryRepo with an upsert.
func (m *MongoSummaryRepo) Save(s teemap.Summary) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	doc := summaryDoc{ID: checksumKey(s.Checksum), Author: s.Author, Summary: s}
	// Checksum is kept only in _id.
	doc.Summary.Checksum = 0
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save summary %s: %w", doc.ID, err)
	}
	return nil
}

// Load implements SummaryRepo.
func (m *MongoSummaryRepo) Load(checksum uint64) (*teemap.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	var doc summaryDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": checksumKey(checksum)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(checksum)
	}
	if err != nil {
		return nil, err
	}
	return doc.summary()
}

// List implements SummaryRepo.
func (m *MongoSummaryRepo) List() ([]teemap.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	cur, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []teemap.Summary
	for cur.Next(ctx) {
		var doc summaryDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		s, err := doc.summary()
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, cur.Err()
}

// Close disconnects the client.
func (m *MongoSummaryRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (d *summaryDoc) summary() (*teemap.Summary, error) {
	checksum, err := parseChecksumKey(d.ID)
	if err != nil {
		return nil, fmt.Errorf("bad summary id %q: %w", d.ID, err)
	}
	s := d.Summary
	s.Checksum = checksum
	return &s, nil
}
