// Package transport defines request and response DTOs for the tags API.
package transport

import "github.com/google/uuid"

// CreateTagRequest is the payload for creating a tag definition.
type CreateTagRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Category string `json:"category" validate:"omitempty,max=50"`
}

// UpdateTagRequest is the payload for a partial tag update.
type UpdateTagRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=50"`
	Color    *string `json:"color" validate:"omitempty,hexcolor"`
	Category *string `json:"category" validate:"omitempty,max=50"`
}

// TagResponse is the API representation of a tag.
type TagResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	Category   string    `json:"category,omitempty"`
	UsageCount int       `json:"usageCount"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}
