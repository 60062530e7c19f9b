package dto

import (
	"time"

	"github.com/allisson/planner/internal/relationship/domain"
)

// TupleResponse represents a relationship tuple in API responses.
type TupleResponse struct {
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Relation     string    `json:"relation"`
	SubjectType  string    `json:"subject_type"`
	SubjectID    string    `json:"subject_id"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// ListTuplesResponse wraps a list of tuples.
type ListTuplesResponse struct {
	Data []TupleResponse `json:"data"`
}

// LookupResponse lists the ids of accessible resources.
type LookupResponse struct {
	Data []string `json:"data"`
}

// MapTupleToResponse converts a domain tuple to an API response.
func MapTupleToResponse(tuple *domain.Tuple) TupleResponse {
	return TupleResponse{
		ResourceType: string(tuple.ResourceType),
		ResourceID:   tuple.ResourceID,
		Relation:     tuple.Relation,
		SubjectType:  tuple.SubjectType,
		SubjectID:    tuple.SubjectID,
		CreatedAt:    tuple.CreatedAt,
	}
}

// MapTuplesToListResponse converts domain tuples to a list response.
func MapTuplesToListResponse(tuples []*domain.Tuple) ListTuplesResponse {
	data := make([]TupleResponse, 0, len(tuples))
	for _, tuple := range tuples {
		data = append(data, MapTupleToResponse(tuple))
	}
	return ListTuplesResponse{Data: data}
}

// MapIDsToLookupResponse converts ids to a lookup response that never encodes null.
func MapIDsToLookupResponse(ids []string) LookupResponse {
	if ids == nil {
		ids = []string{}
	}
	return LookupResponse{Data: ids}
}
