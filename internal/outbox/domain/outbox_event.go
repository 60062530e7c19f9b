// Package domain defines the outbox events that carry cache invalidations which must
// not be lost when the session cache is unreachable.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types.
const (
	// EventSessionsRevokeAll deletes every cached session of a subject.
	EventSessionsRevokeAll = "sessions.revoke_all"

	// EventSettingInvalidate drops a cached setting, or all settings of an entity.
	EventSettingInvalidate = "setting.invalidate"
)

// OutboxEvent is written in the same transaction as the durable change it follows.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RevokeSessionsPayload is the payload of EventSessionsRevokeAll.
type RevokeSessionsPayload struct {
	SubjectID string `json:"subject_id"`
}

// InvalidateSettingPayload is the payload of EventSettingInvalidate.
type InvalidateSettingPayload struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Key        string `json:"key"`
}

// NewOutboxEvent builds a pending event with a JSON encoded payload.
func NewOutboxEvent(eventType string, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(data),
		Status:    OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkProcessed records a successful delivery.
func (e *OutboxEvent) MarkProcessed(at time.Time) {
	e.Status = OutboxEventStatusProcessed
	e.ProcessedAt = &at
	e.LastError = nil
	e.UpdatedAt = at
}

// MarkFailed records a failed attempt. The event stays pending until maxRetries
// attempts have failed.
func (e *OutboxEvent) MarkFailed(err error, maxRetries int, at time.Time) {
	e.Retries++
	msg := err.Error()
	e.LastError = &msg
	e.UpdatedAt = at
	if e.Retries >= maxRetries {
		e.Status = OutboxEventStatusFailed
	}
}
