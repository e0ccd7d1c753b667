package service

import (
	"context"
	"errors"

	"leadhub_backend/internal/access"
	"leadhub_backend/internal/leads/repository"
	"leadhub_backend/internal/leads/transport"
	"leadhub_backend/platform/apperr"

	"github.com/google/uuid"
)

// BulkTag applies a tag add or remove across a batch of leads. Ids that do
// not resolve within the tenant are recorded as per-item failures; the
// remaining leads are still processed. Re-adding a present tag and removing
// an absent one are no-ops, so the operation is idempotent.
func (s *Service) BulkTag(ctx context.Context, p access.Principal, req transport.BulkTagRequest) (transport.BulkTagResponse, error) {
	if err := access.Authorize(p, access.OpBulkTag, p.TenantID); err != nil {
		return transport.BulkTagResponse{}, err
	}

	if len(req.LeadIDs) == 0 {
		return transport.BulkTagResponse{}, apperr.Validation("at least one lead id is required")
	}
	if req.Action != transport.BulkTagActionAdd && req.Action != transport.BulkTagActionRemove {
		return transport.BulkTagResponse{}, apperr.Validation("action must be add or remove")
	}

	tagIDs := dedupeUUIDs(req.TagIDs)
	resolved, err := s.repo.ResolveTagIDs(ctx, p.TenantID, tagIDs)
	if err != nil {
		return transport.BulkTagResponse{}, err
	}

	validTags := make([]uuid.UUID, 0, len(tagIDs))
	skippedTags := make([]uuid.UUID, 0)
	for _, tagID := range tagIDs {
		if resolved[tagID] {
			validTags = append(validTags, tagID)
		} else {
			skippedTags = append(skippedTags, tagID)
		}
	}
	if len(validTags) == 0 {
		return transport.BulkTagResponse{}, apperr.Validation("no tag ids resolve within the tenant")
	}

	result := transport.BulkTagResponse{
		Succeeded:     make([]uuid.UUID, 0, len(req.LeadIDs)),
		Failed:        make([]transport.BulkTagFailure, 0),
		SkippedTagIDs: skippedTags,
	}

	action := repository.ActivityTagsAdded
	if req.Action == transport.BulkTagActionRemove {
		action = repository.ActivityTagsRemoved
	}

	for _, leadID := range dedupeUUIDs(req.LeadIDs) {
		var mutErr error
		if req.Action == transport.BulkTagActionAdd {
			mutErr = s.repo.AddLeadTags(ctx, leadID, p.TenantID, validTags)
		} else {
			mutErr = s.repo.RemoveLeadTags(ctx, leadID, p.TenantID, validTags)
		}

		if mutErr != nil {
			reason := "storage failure"
			if errors.Is(mutErr, repository.ErrNotFound) {
				reason = "lead not found"
			}
			result.Failed = append(result.Failed, transport.BulkTagFailure{LeadID: leadID, Reason: reason})
			continue
		}

		_ = s.repo.AddActivity(ctx, leadID, p.TenantID, p.UserID, action, map[string]interface{}{
			"tagIds": validTags,
		})
		result.Succeeded = append(result.Succeeded, leadID)
	}

	return result, nil
}

func dedupeUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
