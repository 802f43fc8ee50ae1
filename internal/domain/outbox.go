package domain

import "time"

// Well-known outbox event types this core emits (spec.md §6).
const (
	EventTypeVersionPublished = "version.published"
	EventTypeUploadCommitted  = "upload.committed"

	AggregateTypePackageVersion = "package_version"
)

// OutboxEvent is an append-only producer row with mutable consumer state,
// co-committed with the business write it describes (spec.md §3, §9).
type OutboxEvent struct {
	EventID          string
	TenantID         string
	AggregateType    string
	AggregateID      string
	EventType        string
	PayloadJSON      string
	OccurredAt       time.Time
	AvailableAt      time.Time
	DeliveredAt      *time.Time
	DeliveryAttempts int
}

// VersionPublishedPayload is the JSON body of a version.published event.
type VersionPublishedPayload struct {
	VersionID string `json:"versionId"`
}
