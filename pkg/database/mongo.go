package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// DefaultMongoConfig returns defaults for a local single-node deployment.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "shop",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    50,
	}
}

// Mongo bundles a connected client with the application database.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// IndexSpec describes one index to ensure on a collection at startup.
type IndexSpec struct {
	Collection string
	Model      mongo.IndexModel
}

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
// Extra client options (e.g. a pool monitor) are applied after the URI.
func ConnectMongo(ctx context.Context, cfg MongoConfig, extra ...*options.ClientOptions) (*Mongo, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	all := append([]*options.ClientOptions{opts}, extra...)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{
		Client:   client,
		Database: client.Database(cfg.Database),
	}, nil
}

// EnsureIndexes creates the given indexes. Creating an index that already
// exists with the same definition is a no-op on the server.
func (m *Mongo) EnsureIndexes(ctx context.Context, specs []IndexSpec) error {
	for _, s := range specs {
		if _, err := m.Database.Collection(s.Collection).Indexes().CreateOne(ctx, s.Model); err != nil {
			name := ""
			if s.Model.Options != nil && s.Model.Options.Name != nil {
				name = *s.Model.Options.Name
			}
			return fmt.Errorf("create index %s on %s: %w", name, s.Collection, err)
		}
	}
	return nil
}

// Ping is suitable as a readiness check.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Disconnect closes all pooled connections.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
