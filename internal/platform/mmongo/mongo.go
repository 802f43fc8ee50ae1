// Package mmongo wires the MongoDB client backing the rebuildable
// SearchDocument read-model store.
package mmongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connection is a hub dealing with MongoDB connections.
type Connection struct {
	ConnectionStringSource string
	Database               string

	client    *mongo.Client
	connected bool
}

// Connect opens and pings the client.
func (c *Connection) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.ConnectionStringSource))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	c.client = client
	c.connected = true

	return nil
}

// GetDB returns the client, connecting lazily on first use.
func (c *Connection) GetDB(ctx context.Context) (*mongo.Client, error) {
	if c.client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client, nil
}

// Connected reports whether the client has been successfully established.
func (c *Connection) Connected() bool { return c.connected }
