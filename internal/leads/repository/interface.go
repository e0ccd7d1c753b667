package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository depends on. It is satisfied
// by *pgxpool.Pool in production and by pgxmock.PgxPoolIface in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Consumer-driven interfaces. Services depend on the slices they need,
// not on the whole repository.

// LeadReader provides read access to leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides mutation access to leads.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Update(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params UpdateLeadParams) (Lead, error)
	Delete(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error
}

// TagMembershipWriter mutates lead/tag associations, keeping tag usage
// counters consistent with actual membership.
type TagMembershipWriter interface {
	ResolveTagIDs(ctx context.Context, tenantID uuid.UUID, tagIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	AddLeadTags(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, tagIDs []uuid.UUID) error
	RemoveLeadTags(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, tagIDs []uuid.UUID) error
}

// ActivityLogger appends and reads the durable lead audit trail.
type ActivityLogger interface {
	AddActivity(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, userID uuid.UUID, action string, meta map[string]interface{}) error
	ListActivity(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, limit int) ([]Activity, error)
}

// Activity is a single audit trail entry for a lead.
type Activity struct {
	ID        int64
	LeadID    uuid.UUID
	TenantID  uuid.UUID
	UserID    uuid.UUID
	Action    string
	Meta      map[string]interface{}
	CreatedAt time.Time
}
