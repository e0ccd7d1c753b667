package transport

import (
	"time"

	"github.com/google/uuid"
)

// Enum values
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type LeadSource string

const (
	LeadSourceManual       LeadSource = "manual"
	LeadSourceQRCode       LeadSource = "qr_code"
	LeadSourceSurvey       LeadSource = "survey"
	LeadSourceWebsite      LeadSource = "website"
	LeadSourceSocialMedia  LeadSource = "social_media"
	LeadSourceReferral     LeadSource = "referral"
	LeadSourceEvent        LeadSource = "event"
	LeadSourceColdOutreach LeadSource = "cold_outreach"
	LeadSourceOther        LeadSource = "other"
)

type BulkTagAction string

const (
	BulkTagActionAdd    BulkTagAction = "add"
	BulkTagActionRemove BulkTagAction = "remove"
)

// Request DTOs
type CreateLeadRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Email       string     `json:"email" validate:"required,email,max=254"`
	Phone       string     `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Company     string     `json:"company,omitempty" validate:"omitempty,max=200"`
	Position    string     `json:"position,omitempty" validate:"omitempty,max=200"`
	Source      LeadSource `json:"source,omitempty" validate:"omitempty,oneof=manual qr_code survey website social_media referral event cold_outreach other"`
	Interests   []string   `json:"interests,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
	Notes       string     `json:"notes,omitempty" validate:"omitempty,max=5000"`
	LgpdConsent bool       `json:"lgpdConsent"`
}

type UpdateLeadRequest struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email       *string     `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone       *string     `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Company     *string     `json:"company,omitempty" validate:"omitempty,max=200"`
	Position    *string     `json:"position,omitempty" validate:"omitempty,max=200"`
	Status      *LeadStatus `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Interests   []string    `json:"interests,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
	Notes       *string     `json:"notes,omitempty" validate:"omitempty,max=5000"`
	LgpdConsent *bool       `json:"lgpdConsent,omitempty"`
}

type ListLeadsRequest struct {
	Search    string      `form:"search" validate:"max=100"`
	Status    *LeadStatus `form:"status" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Source    *LeadSource `form:"source" validate:"omitempty,oneof=manual qr_code survey website social_media referral event cold_outreach other"`
	TagID     *uuid.UUID  `form:"tagId" validate:"omitempty"`
	DateFrom  *time.Time  `form:"dateFrom" time_format:"2006-01-02" validate:"omitempty"`
	DateTo    *time.Time  `form:"dateTo" time_format:"2006-01-02" validate:"omitempty"`
	// Page and PageSize are clamped by the service rather than rejected.
	Page      int         `form:"page"`
	PageSize  int         `form:"pageSize"`
	SortBy    string      `form:"sortBy" validate:"omitempty,oneof=name email company status createdAt"`
	SortOrder string      `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type BulkTagRequest struct {
	LeadIDs []uuid.UUID   `json:"leadIds" validate:"required,min=1,max=500"`
	TagIDs  []uuid.UUID   `json:"tagIds" validate:"required,min=1,max=50"`
	Action  BulkTagAction `json:"action" validate:"required,oneof=add remove"`
}

// Response DTOs
type LeadResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Company     string      `json:"company,omitempty"`
	Position    string      `json:"position,omitempty"`
	Status      LeadStatus  `json:"status"`
	Source      LeadSource  `json:"source"`
	Interests   []string    `json:"interests"`
	Tags        []uuid.UUID `json:"tags"`
	Notes       string      `json:"notes,omitempty"`
	LgpdConsent bool        `json:"lgpdConsent"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type BulkTagFailure struct {
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

type BulkTagResponse struct {
	Succeeded []uuid.UUID      `json:"succeeded"`
	Failed    []BulkTagFailure `json:"failed"`
	// SkippedTagIDs lists requested tag ids that did not resolve within the
	// tenant and were left out of the operation.
	SkippedTagIDs []uuid.UUID `json:"skippedTagIds,omitempty"`
}

type ActivityResponse struct {
	ID        int64                  `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	Action    string                 `json:"action"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
