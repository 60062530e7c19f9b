// Package dto provides data transfer objects for relationship HTTP requests and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/planner/internal/relationship/domain"
	customValidation "github.com/allisson/planner/internal/validation"
)

// RelationshipRequest names the relation and subject of a tuple. The resource comes
// from the route.
type RelationshipRequest struct {
	Relation    string `json:"relation"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
}

// Validate checks if the relationship request is valid.
func (r *RelationshipRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Relation, validation.Required, customValidation.Identifier),
		validation.Field(&r.SubjectType, validation.Required, customValidation.Identifier),
		validation.Field(&r.SubjectID, validation.Required, validation.Length(1, 255), customValidation.NoWhitespace),
	)
}

// ToTuple builds the tuple on the given resource.
func (r *RelationshipRequest) ToTuple(resourceType domain.ResourceType, resourceID string) domain.Tuple {
	return domain.Tuple{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Relation:     r.Relation,
		SubjectType:  r.SubjectType,
		SubjectID:    r.SubjectID,
	}
}

// ParentRequest names the parent of a resource that has no tuples yet.
type ParentRequest struct {
	ParentType string `json:"parent_type"`
	ParentID   string `json:"parent_id"`
}

// Validate checks if the parent request is valid.
func (r *ParentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ParentType, validation.Required, customValidation.Identifier),
		validation.Field(&r.ParentID, validation.Required, validation.Length(1, 255), customValidation.NoWhitespace),
	)
}

// ToTuple builds the parent link of the given resource.
func (r *ParentRequest) ToTuple(resourceType domain.ResourceType, resourceID string) domain.Tuple {
	return domain.Tuple{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Relation:     domain.RelationParent,
		SubjectType:  r.ParentType,
		SubjectID:    r.ParentID,
	}
}
