// Package service implements the lead lifecycle engine and the service
// facade consumed by the HTTP layer. Every operation authorizes the acting
// principal before touching the repository.
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"leadhub_backend/internal/access"
	"leadhub_backend/internal/leads/domain"
	"leadhub_backend/internal/leads/repository"
	"leadhub_backend/internal/leads/transport"
	"leadhub_backend/platform/apperr"
	"leadhub_backend/platform/phone"
	"leadhub_backend/platform/validator"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the lead service.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	repository.TagMembershipWriter
	repository.ActivityLogger
}

// Service handles lead lifecycle operations.
type Service struct {
	repo Repository
	val  *validator.Validator
}

// New creates a new lead service.
func New(repo Repository, val *validator.Validator) *Service {
	return &Service{repo: repo, val: val}
}

// Create captures a new lead for the principal's tenant. Name and a valid
// email are required; status always starts at new.
func (s *Service) Create(ctx context.Context, p access.Principal, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if err := access.Authorize(p, access.OpCreate, p.TenantID); err != nil {
		return transport.LeadResponse{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return transport.LeadResponse{}, apperr.Validation("name is required")
	}
	if err := s.val.Var(req.Email, "required,email"); err != nil {
		return transport.LeadResponse{}, apperr.Validation("a valid email is required")
	}

	source := string(req.Source)
	if source == "" {
		source = domain.SourceManual
	}
	if !domain.IsKnownSource(source) {
		return transport.LeadResponse{}, apperr.Validation("unknown lead source")
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		TenantID:    p.TenantID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       phone.NormalizeE164(req.Phone),
		Company:     strings.TrimSpace(req.Company),
		Position:    strings.TrimSpace(req.Position),
		Source:      source,
		Interests:   normalizeInterests(req.Interests),
		Notes:       req.Notes,
		LGPDConsent: req.LgpdConsent,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	_ = s.repo.AddActivity(ctx, lead.ID, p.TenantID, p.UserID, repository.ActivityCreated, map[string]interface{}{
		"source": lead.Source,
	})

	return toLeadResponse(lead), nil
}

// GetByID retrieves a lead within the principal's tenant.
func (s *Service) GetByID(ctx context.Context, p access.Principal, id uuid.UUID) (transport.LeadResponse, error) {
	if err := access.Authorize(p, access.OpRead, p.TenantID); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.repo.GetByID(ctx, id, p.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	return toLeadResponse(lead), nil
}

// Update applies a partial patch. A status change must be a legal transition
// checked against the most recently committed status; the whole patch is
// all-or-nothing.
func (s *Service) Update(ctx context.Context, p access.Principal, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if err := access.Authorize(p, access.OpUpdate, p.TenantID); err != nil {
		return transport.LeadResponse{}, err
	}

	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		if err := s.val.Var(trimmed, "required,email"); err != nil {
			return transport.LeadResponse{}, apperr.Validation("a valid email is required")
		}
		req.Email = &trimmed
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return transport.LeadResponse{}, apperr.Validation("name cannot be empty")
	}

	// Two attempts: if a concurrent writer commits a different status between
	// our read and the compare-and-set update, re-read and re-validate once.
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.repo.GetByID(ctx, id, p.TenantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return transport.LeadResponse{}, apperr.NotFound("lead not found")
			}
			return transport.LeadResponse{}, err
		}

		params, err := buildUpdateParams(current, req)
		if err != nil {
			return transport.LeadResponse{}, err
		}

		lead, err := s.repo.Update(ctx, id, p.TenantID, params)
		if errors.Is(err, repository.ErrStatusChanged) {
			continue
		}
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return transport.LeadResponse{}, apperr.NotFound("lead not found")
			}
			return transport.LeadResponse{}, err
		}

		if params.Status != nil && *params.Status != current.Status {
			_ = s.repo.AddActivity(ctx, id, p.TenantID, p.UserID, repository.ActivityStatusChanged, map[string]interface{}{
				"from": current.Status,
				"to":   *params.Status,
			})
		} else {
			_ = s.repo.AddActivity(ctx, id, p.TenantID, p.UserID, repository.ActivityUpdated, nil)
		}

		return toLeadResponse(lead), nil
	}

	return transport.LeadResponse{}, apperr.Conflict("lead was modified concurrently, retry the update")
}

func buildUpdateParams(current repository.Lead, req transport.UpdateLeadRequest) (repository.UpdateLeadParams, error) {
	params := repository.UpdateLeadParams{
		Name:     req.Name,
		Email:    req.Email,
		Company:  req.Company,
		Position: req.Position,
		Notes:    req.Notes,
	}

	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}
	if req.Interests != nil {
		params.Interests = normalizeInterests(req.Interests)
		params.InterestsSet = true
	}

	if req.LgpdConsent != nil {
		// Consent, once granted, is only withdrawn through the dedicated
		// revocation flow, never through a plain field update.
		if current.LGPDConsent && !*req.LgpdConsent {
			return repository.UpdateLeadParams{}, apperr.Validation("consent cannot be revoked through a lead update")
		}
		params.LGPDConsent = req.LgpdConsent
	}

	if req.Status != nil {
		target := string(*req.Status)
		if !domain.CanTransition(current.Status, target) {
			return repository.UpdateLeadParams{}, apperr.InvalidTransition(
				"cannot transition lead from " + current.Status + " to " + target)
		}
		if target != current.Status {
			params.Status = &target
			expected := current.Status
			params.ExpectedStatus = &expected
		}
	}

	return params, nil
}

// Delete hard-deletes a lead from the principal's tenant.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.Authorize(p, access.OpDelete, p.TenantID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, p.TenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return err
	}

	_ = s.repo.AddActivity(ctx, id, p.TenantID, p.UserID, repository.ActivityDeleted, nil)
	return nil
}

// List executes the query engine: the criteria value fully determines the
// page; identical criteria against unchanged data yield an identical page.
func (s *Service) List(ctx context.Context, p access.Principal, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if err := access.Authorize(p, access.OpRead, p.TenantID); err != nil {
		return transport.LeadListResponse{}, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	// dateTo binds to midnight of the named day; the range is inclusive of
	// that whole day, so push the bound to its last second.
	createdAtTo := req.DateTo
	if req.DateTo != nil {
		endOfDay := req.DateTo.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		createdAtTo = &endOfDay
	}

	params := repository.ListParams{
		TenantID:      p.TenantID,
		Search:        strings.TrimSpace(req.Search),
		TagID:         req.TagID,
		CreatedAtFrom: req.DateFrom,
		CreatedAtTo:   createdAtTo,
		SortBy:        mapSortField(req.SortBy),
		SortOrder:     req.SortOrder,
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}
	if req.Source != nil {
		source := string(*req.Source)
		params.Source = &source
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListActivity returns the audit trail for a lead, newest first.
func (s *Service) ListActivity(ctx context.Context, p access.Principal, id uuid.UUID, limit int) ([]transport.ActivityResponse, error) {
	if err := access.Authorize(p, access.OpRead, p.TenantID); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id, p.TenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}

	if limit < 1 || limit > 200 {
		limit = 50
	}

	entries, err := s.repo.ListActivity(ctx, id, p.TenantID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]transport.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, transport.ActivityResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			Action:    entry.Action,
			Meta:      entry.Meta,
			CreatedAt: entry.CreatedAt,
		})
	}
	return items, nil
}

func mapSortField(sortBy string) string {
	if sortBy == "createdAt" {
		return "created_at"
	}
	return sortBy
}

// normalizeInterests trims entries and collapses duplicates, preserving a
// stable order for reproducible responses.
func normalizeInterests(interests []string) []string {
	seen := make(map[string]bool, len(interests))
	result := make([]string, 0, len(interests))
	for _, interest := range interests {
		trimmed := strings.TrimSpace(interest)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		result = append(result, trimmed)
	}
	sort.Strings(result)
	return result
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	interests := lead.Interests
	if interests == nil {
		interests = []string{}
	}
	tags := lead.Tags
	if tags == nil {
		tags = []uuid.UUID{}
	}

	return transport.LeadResponse{
		ID:          lead.ID,
		Name:        lead.Name,
		Email:       lead.Email,
		Phone:       lead.Phone,
		Company:     lead.Company,
		Position:    lead.Position,
		Status:      transport.LeadStatus(lead.Status),
		Source:      transport.LeadSource(lead.Source),
		Interests:   interests,
		Tags:        tags,
		Notes:       lead.Notes,
		LgpdConsent: lead.LGPDConsent,
		CreatedAt:   lead.CreatedAt,
		UpdatedAt:   lead.UpdatedAt,
	}
}
