// Package mrabbitmq wires the RabbitMQ connection backing the
// best-effort notification fan-out producer.
//
// Uses rabbitmq/amqp091-go, not the deprecated streadway/amqp: this is the
// library actually declared by this module's own dependency stack, not a
// historical import an older internal package happened to pin.
package mrabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sremani/artifortress/internal/platform/mlog"
)

// Connection is a hub dealing with RabbitMQ connections.
type Connection struct {
	ConnectionStringSource string
	Logger                 mlog.Logger

	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
}

// Connect dials the broker and opens one channel, kept open for the life
// of the process (unlike a per-call channel, which would defeat the
// connection's purpose).
func (c *Connection) Connect(ctx context.Context) error {
	conn, err := amqp.Dial(c.ConnectionStringSource)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch
	c.connected = true

	return nil
}

// GetChannel returns the open channel, connecting lazily on first use.
func (c *Connection) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	if !c.connected {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.channel, nil
}

// Close tears down the channel and connection.
func (c *Connection) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}

// Connected reports whether the broker connection is currently open.
func (c *Connection) Connected() bool { return c.connected }
