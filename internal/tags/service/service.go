// Package service implements the tag management use cases.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadhub_backend/internal/access"
	"leadhub_backend/internal/tags/repository"
	"leadhub_backend/internal/tags/transport"
	"leadhub_backend/platform/apperr"
	"leadhub_backend/platform/validator"
)

// Repository defines the persistence operations the service depends on.
type Repository interface {
	Create(ctx context.Context, tag *repository.Tag) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*repository.Tag, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]repository.Tag, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, params repository.UpdateTagParams) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Service orchestrates tag management with access control.
type Service struct {
	repo Repository
	val  *validator.Validator
}

// New creates the tag service.
func New(repo Repository, val *validator.Validator) *Service {
	return &Service{repo: repo, val: val}
}

// Create registers a new tag definition for the principal's tenant.
func (s *Service) Create(ctx context.Context, p access.Principal, req transport.CreateTagRequest) (transport.TagResponse, error) {
	if err := access.Authorize(p, access.OpManageTags, p.TenantID); err != nil {
		return transport.TagResponse{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return transport.TagResponse{}, apperr.Validation("tag name is required")
	}

	tag := &repository.Tag{
		ID:       uuid.New(),
		TenantID: p.TenantID,
		Name:     req.Name,
		Color:    req.Color,
		Category: req.Category,
	}

	if err := s.repo.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return transport.TagResponse{}, apperr.Conflict("a tag with this name already exists")
		}
		return transport.TagResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create tag", err)
	}

	return toTagResponse(tag), nil
}

// List returns all tags for the principal's tenant with usage counts.
func (s *Service) List(ctx context.Context, p access.Principal) ([]transport.TagResponse, error) {
	if err := access.Authorize(p, access.OpRead, p.TenantID); err != nil {
		return nil, err
	}

	tags, err := s.repo.List(ctx, p.TenantID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list tags", err)
	}

	responses := make([]transport.TagResponse, 0, len(tags))
	for i := range tags {
		responses = append(responses, toTagResponse(&tags[i]))
	}

	return responses, nil
}

// Update applies a partial update to a tag definition.
func (s *Service) Update(ctx context.Context, p access.Principal, id uuid.UUID, req transport.UpdateTagRequest) (transport.TagResponse, error) {
	if err := access.Authorize(p, access.OpManageTags, p.TenantID); err != nil {
		return transport.TagResponse{}, err
	}

	params := repository.UpdateTagParams{
		Color:    req.Color,
		Category: req.Category,
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return transport.TagResponse{}, apperr.Validation("tag name cannot be empty")
		}
		params.Name = &trimmed
	}

	if err := s.repo.Update(ctx, p.TenantID, id, params); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return transport.TagResponse{}, apperr.NotFound("tag not found")
		case errors.Is(err, repository.ErrDuplicateName):
			return transport.TagResponse{}, apperr.Conflict("a tag with this name already exists")
		default:
			return transport.TagResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update tag", err)
		}
	}

	tag, err := s.repo.GetByID(ctx, p.TenantID, id)
	if err != nil {
		return transport.TagResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load updated tag", err)
	}

	return toTagResponse(tag), nil
}

// Delete removes a tag definition. Lead memberships cascade away.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	if err := access.Authorize(p, access.OpManageTags, p.TenantID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.TenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("tag not found")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete tag", err)
	}

	return nil
}

func toTagResponse(tag *repository.Tag) transport.TagResponse {
	return transport.TagResponse{
		ID:         tag.ID,
		Name:       tag.Name,
		Color:      tag.Color,
		Category:   tag.Category,
		UsageCount: tag.UsageCount,
		CreatedAt:  tag.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  tag.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
