// Package mongodb initializes the document database client holding the
// product catalog and order snapshots.
package mongodb

import (
	"context"
	"fmt"
	"time"

	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config mirrors config.MongoConfig.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout int
}

// Client wraps the mongo client together with the configured database.
type Client struct {
	*mongo.Client
	database string
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(cfg Config) (*Client, error) {
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	pkglogger.Info(context.Background(), "mongodb connected", "database", cfg.Database)
	return &Client{Client: client, database: cfg.Database}, nil
}

// Database returns the configured database handle.
func (c *Client) Database() *mongo.Database {
	return c.Client.Database(c.database)
}

// Collection returns a collection in the configured database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.Database().Collection(name)
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}
