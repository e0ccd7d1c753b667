package service

import (
	"context"
	"testing"

	"leadhub_backend/internal/access"
	"leadhub_backend/internal/leads/domain"
	"leadhub_backend/internal/leads/repository"
	"leadhub_backend/internal/leads/transport"
	"leadhub_backend/platform/apperr"

	"github.com/google/uuid"
)

func seedLead(repo *fakeRepo, tenant uuid.UUID) uuid.UUID {
	id := uuid.New()
	repo.leads[id] = repository.Lead{ID: id, TenantID: tenant, Name: "Lead", Email: "l@x.com", Status: domain.StatusNew}
	return id
}

func seedTag(repo *fakeRepo, tenant uuid.UUID) uuid.UUID {
	id := uuid.New()
	repo.tagTenants[id] = tenant
	return id
}

func TestBulkTagAddPartialFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	tenant := uuid.New()
	p := adminPrincipal(tenant)

	lead1 := seedLead(repo, tenant)
	lead2 := seedLead(repo, tenant)
	badLead := uuid.New()
	tag := seedTag(repo, tenant)

	result, err := svc.BulkTag(context.Background(), p, transport.BulkTagRequest{
		LeadIDs: []uuid.UUID{lead1, lead2, badLead},
		TagIDs:  []uuid.UUID{tag},
		Action:  transport.BulkTagActionAdd,
	})
	if err != nil {
		t.Fatalf("BulkTag returned error: %v", err)
	}

	if len(result.Succeeded) != 2 {
		t.Errorf("succeeded = %v, want 2 leads", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].LeadID != badLead {
		t.Errorf("failed = %v, want the unknown lead", result.Failed)
	}
	if result.Failed[0].Reason != "lead not found" {
		t.Errorf("failure reason = %q, want lead not found", result.Failed[0].Reason)
	}
	if got := repo.usageCount(tag); got != 2 {
		t.Errorf("tag usage = %d, want 2", got)
	}
}

func TestBulkTagAddIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	tenant := uuid.New()
	p := adminPrincipal(tenant)

	lead := seedLead(repo, tenant)
	tag := seedTag(repo, tenant)

	req := transport.BulkTagRequest{
		LeadIDs: []uuid.UUID{lead, lead},
		TagIDs:  []uuid.UUID{tag, tag},
		Action:  transport.BulkTagActionAdd,
	}

	for i := 0; i < 2; i++ {
		result, err := svc.BulkTag(context.Background(), p, req)
		if err != nil {
			t.Fatalf("BulkTag pass %d returned error: %v", i+1, err)
		}
		if len(result.Succeeded) != 1 {
			t.Errorf("pass %d succeeded = %v, want deduplicated single lead", i+1, result.Succeeded)
		}
	}

	if got := repo.usageCount(tag); got != 1 {
		t.Errorf("tag usage after double add = %d, want 1", got)
	}
}

func TestBulkTagRemove(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	tenant := uuid.New()
	p := adminPrincipal(tenant)

	lead := seedLead(repo, tenant)
	tagged := seedTag(repo, tenant)
	absent := seedTag(repo, tenant)
	repo.leadTags[lead] = map[uuid.UUID]bool{tagged: true}

	result, err := svc.BulkTag(context.Background(), p, transport.BulkTagRequest{
		LeadIDs: []uuid.UUID{lead},
		TagIDs:  []uuid.UUID{tagged, absent},
		Action:  transport.BulkTagActionRemove,
	})
	if err != nil {
		t.Fatalf("BulkTag returned error: %v", err)
	}
	if len(result.Succeeded) != 1 {
		t.Errorf("succeeded = %v, want 1", result.Succeeded)
	}
	if repo.usageCount(tagged) != 0 {
		t.Errorf("tag usage after remove = %d, want 0", repo.usageCount(tagged))
	}
	// Removing a tag that was never present is a no-op, not a failure.
	if len(result.Failed) != 0 {
		t.Errorf("failed = %v, want none", result.Failed)
	}
}

func TestBulkTagRejectsUnresolvableTags(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	tenantA := uuid.New()
	tenantB := uuid.New()
	p := adminPrincipal(tenantA)

	lead := seedLead(repo, tenantA)
	foreignTag := seedTag(repo, tenantB)

	_, err := svc.BulkTag(context.Background(), p, transport.BulkTagRequest{
		LeadIDs: []uuid.UUID{lead},
		TagIDs:  []uuid.UUID{foreignTag},
		Action:  transport.BulkTagActionAdd,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("cross-tenant tag error = %v, want validation", err)
	}
	if len(repo.leadTags[lead]) != 0 {
		t.Error("foreign tag was attached to lead")
	}
}

func TestBulkTagForbiddenForInterviewer(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	tenant := uuid.New()

	lead := seedLead(repo, tenant)
	tag := seedTag(repo, tenant)

	p := access.Principal{UserID: uuid.New(), TenantID: tenant, Roles: []string{access.RoleInterviewer}}
	_, err := svc.BulkTag(context.Background(), p, transport.BulkTagRequest{
		LeadIDs: []uuid.UUID{lead},
		TagIDs:  []uuid.UUID{tag},
		Action:  transport.BulkTagActionAdd,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("interviewer bulk tag error = %v, want forbidden", err)
	}
}

func TestBulkTagReportsSkippedTags(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	tenant := uuid.New()
	p := adminPrincipal(tenant)

	lead := seedLead(repo, tenant)
	goodTag := seedTag(repo, tenant)
	foreignTag := seedTag(repo, uuid.New())

	result, err := svc.BulkTag(context.Background(), p, transport.BulkTagRequest{
		LeadIDs: []uuid.UUID{lead},
		TagIDs:  []uuid.UUID{goodTag, foreignTag},
		Action:  transport.BulkTagActionAdd,
	})
	if err != nil {
		t.Fatalf("BulkTag returned error: %v", err)
	}

	if len(result.Succeeded) != 1 || result.Succeeded[0] != lead {
		t.Errorf("succeeded = %v, want the seeded lead", result.Succeeded)
	}
	if len(result.SkippedTagIDs) != 1 || result.SkippedTagIDs[0] != foreignTag {
		t.Errorf("skippedTagIds = %v, want the unresolvable tag", result.SkippedTagIDs)
	}
	if got := repo.usageCount(goodTag); got != 1 {
		t.Errorf("tag usage = %d, want 1", got)
	}
	if got := repo.usageCount(foreignTag); got != 0 {
		t.Errorf("foreign tag usage = %d, want untouched", got)
	}
}
