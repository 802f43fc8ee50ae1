// Package outbox provides the Postgres-backed Repository for
// domain.OutboxEvent, the transactional-outbox table co-committed with the
// business writes it describes.
package outbox

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape outbox_events are read/written as.
type PostgreSQLModel struct {
	EventID          string
	TenantID         string
	AggregateType    string
	AggregateID      string
	EventType        string
	PayloadJSON      string
	OccurredAt       time.Time
	AvailableAt      time.Time
	DeliveredAt      sql.NullTime
	DeliveryAttempts int
}

// FromEntity populates m from e.
func (m *PostgreSQLModel) FromEntity(e *domain.OutboxEvent) {
	m.EventID = e.EventID
	m.TenantID = e.TenantID
	m.AggregateType = e.AggregateType
	m.AggregateID = e.AggregateID
	m.EventType = e.EventType
	m.PayloadJSON = e.PayloadJSON
	m.OccurredAt = e.OccurredAt
	m.AvailableAt = e.AvailableAt
	m.DeliveryAttempts = e.DeliveryAttempts

	if e.DeliveredAt != nil {
		m.DeliveredAt = sql.NullTime{Time: *e.DeliveredAt, Valid: true}
	}
}

// ToEntity converts m to a domain.OutboxEvent.
func (m *PostgreSQLModel) ToEntity() *domain.OutboxEvent {
	e := &domain.OutboxEvent{
		EventID:          m.EventID,
		TenantID:         m.TenantID,
		AggregateType:    m.AggregateType,
		AggregateID:      m.AggregateID,
		EventType:        m.EventType,
		PayloadJSON:      m.PayloadJSON,
		OccurredAt:       m.OccurredAt,
		AvailableAt:      m.AvailableAt,
		DeliveryAttempts: m.DeliveryAttempts,
	}

	if m.DeliveredAt.Valid {
		e.DeliveredAt = &m.DeliveredAt.Time
	}

	return e
}
