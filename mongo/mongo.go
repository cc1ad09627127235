// Package mongo provides MongoDB-based storage for articles.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Defaults for the database and collection names.
const (
	DefaultDatabase   = "intel"
	articleCollection = "articles"
)

// Text index weights for title and content.
const (
	titleWeight   = 10
	contentWeight = 1
)

// DB represents a MongoDB connection.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
	uri      string
	name     string
}

// NewDB creates a new DB for the given connection string and database name.
// An empty name selects DefaultDatabase.
func NewDB(uri, name string) *DB {
	if name == "" {
		name = DefaultDatabase
	}
	return &DB{uri: uri, name: name}
}

// Open connects to the server, verifies the connection and creates indexes.
func (db *DB) Open(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(db.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db.client = client
	db.database = client.Database(db.name)

	if err := db.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Close disconnects from the server.
func (db *DB) Close(ctx context.Context) error {
	if db.client == nil {
		return nil
	}
	return db.client.Disconnect(ctx)
}

// Drop removes the database. Used by tests.
func (db *DB) Drop(ctx context.Context) error {
	return db.database.Drop(ctx)
}

func (db *DB) articles() *mongo.Collection {
	return db.database.Collection(articleCollection)
}

// createIndexes creates the unique URL index, the listing index and the
// weighted text index. Creating an existing index is a no-op.
func (db *DB) createIndexes(ctx context.Context) error {
	_, err := db.articles().Indexes().CreateMany(ctx, indexModels())
	return err
}

func indexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetName("url_unique").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "publishDate", Value: -1},
				{Key: "classification", Value: 1},
				{Key: "sentimentScore", Value: 1},
			},
			Options: options.Index().SetName("listing"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status"),
		},
		{
			Keys: bson.D{{Key: "title", Value: "text"}, {Key: "content", Value: "text"}},
			Options: options.Index().SetName("title_content_text").SetWeights(bson.D{
				{Key: "title", Value: titleWeight},
				{Key: "content", Value: contentWeight},
			}),
		},
	}
}
