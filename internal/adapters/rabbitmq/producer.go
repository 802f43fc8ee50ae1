// Package rabbitmq provides a best-effort notification fan-out producer.
// It is explicitly additive to, never a substitute for, the relational
// outbox: a dropped notification loses nobody their event, because the
// Search Worker still consumes from search_index_jobs regardless of
// whether this producer ever succeeds (spec.md §9).
package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mrabbitmq"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// NotificationExchange is the fanout exchange version.published events are
// published to, for any interested external subscriber.
const NotificationExchange = "artifortress.version_published"

// Producer publishes version-lifecycle notifications. Callers must not
// block the Publish Engine's transaction on this; it runs after commit.
//
//go:generate mockgen --destination=producer.mock.go --package=rabbitmq . Producer
type Producer interface {
	PublishVersionPublished(ctx context.Context, payload domain.VersionPublishedPayload) error
}

// AMQPProducer is the amqp091-go implementation of Producer.
type AMQPProducer struct {
	connection *mrabbitmq.Connection
	logger     mlog.Logger
}

// NewAMQPProducer returns a Producer bound to conn.
func NewAMQPProducer(conn *mrabbitmq.Connection, logger mlog.Logger) *AMQPProducer {
	return &AMQPProducer{connection: conn, logger: logger}
}

func (p *AMQPProducer) PublishVersionPublished(ctx context.Context, payload domain.VersionPublishedPayload) error {
	tracer := mtelemetry.Tracer("rabbitmq.producer")
	ctx, span := tracer.Start(ctx, "rabbitmq.producer.publish_version_published")
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to marshal notification payload", err)
		return err
	}

	ch, err := p.connection.GetChannel(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get rabbitmq channel", err)
		p.logger.Warnf("notification fan-out unavailable, skipping: %v", err)

		return nil
	}

	err = ch.PublishWithContext(ctx,
		NotificationExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to publish notification", err)
		p.logger.Errorf("failed to publish version.published notification: %v", err)

		return nil
	}

	p.logger.Infof("published version.published notification for version %s", payload.VersionID)

	return nil
}
