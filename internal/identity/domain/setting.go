package domain

import (
	"encoding/json"
	"time"
)

// Setting entity types.
const (
	EntityUser         = "user"
	EntityOrganization = "organization"
)

// Setting is a JSON value keyed by (entity type, entity id, key). The durable copy is
// authoritative; the session cache holds a copy with its own TTL.
type Setting struct {
	EntityType string
	EntityID   string
	Key        string
	Value      json.RawMessage
	UpdatedAt  time.Time
}
