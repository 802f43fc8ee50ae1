// Package mredis wires the Redis client backing the dedupe-lookup cache in
// front of the Blob table.
package mredis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sremani/artifortress/internal/platform/mlog"
)

// Connection is a hub dealing with Redis connections.
type Connection struct {
	ConnectionStringSource string
	Logger                 mlog.Logger

	client    *redis.Client
	connected bool
}

// Connect parses the connection URL, builds the client, and pings it.
func (c *Connection) Connect(ctx context.Context) error {
	opts, err := redis.ParseURL(c.ConnectionStringSource)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	c.client = client
	c.connected = true

	return nil
}

// GetClient returns the client, connecting lazily on first use.
func (c *Connection) GetClient(ctx context.Context) (*redis.Client, error) {
	if c.client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.client, nil
}

// Connected reports whether the client has been successfully established.
func (c *Connection) Connected() bool { return c.connected }
