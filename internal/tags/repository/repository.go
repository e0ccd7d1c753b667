// Package repository implements PostgreSQL persistence for tags.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a tag does not exist within the tenant scope.
var ErrNotFound = errors.New("tag not found")

// ErrDuplicateName is returned when a tag name already exists in the tenant.
var ErrDuplicateName = errors.New("tag name already exists")

// DB is the minimal query interface the repository needs. It is satisfied
// by *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Tag is the persistence model for a tag definition.
type Tag struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Name       string
	Color      string
	Category   string
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const tagColumns = `id, tenant_id, name, color, category, usage_count, created_at, updated_at`

// Repository provides tag persistence operations.
type Repository struct {
	db DB
}

// New creates a tag repository.
func New(db DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new tag. Names are unique per tenant.
func (r *Repository) Create(ctx context.Context, tag *Tag) error {
	query := `
		INSERT INTO tags (id, tenant_id, name, color, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING usage_count, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, tag.ID, tag.TenantID, tag.Name, tag.Color, tag.Category).
		Scan(&tag.UsageCount, &tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("create tag: %w", err)
	}

	return nil
}

// GetByID retrieves a single tag within the tenant scope.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE id = $1 AND tenant_id = $2`

	var tag Tag
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&tag.ID, &tag.TenantID, &tag.Name, &tag.Color, &tag.Category,
		&tag.UsageCount, &tag.CreatedAt, &tag.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tag by id: %w", err)
	}

	return &tag, nil
}

// List retrieves all tags for a tenant ordered by name.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE tenant_id = $1 ORDER BY name ASC, id ASC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]Tag, 0)
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(
			&tag.ID, &tag.TenantID, &tag.Name, &tag.Color, &tag.Category,
			&tag.UsageCount, &tag.CreatedAt, &tag.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return tags, nil
}

// UpdateTagParams holds the optional fields for a tag update. Nil fields
// are left untouched.
type UpdateTagParams struct {
	Name     *string
	Color    *string
	Category *string
}

// Update applies a partial update within the tenant scope.
func (r *Repository) Update(ctx context.Context, tenantID, id uuid.UUID, params UpdateTagParams) error {
	setClauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	argPos := 1

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Name != nil {
		addSet("name", *params.Name)
	}
	if params.Color != nil {
		addSet("color", *params.Color)
	}
	if params.Category != nil {
		addSet("category", *params.Category)
	}
	if len(setClauses) == 0 {
		return nil
	}
	addSet("updated_at", time.Now().UTC())

	query := fmt.Sprintf(
		"UPDATE tags SET %s WHERE id = $%d AND tenant_id = $%d",
		strings.Join(setClauses, ", "), argPos, argPos+1,
	)
	args = append(args, id, tenantID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a tag. Memberships in lead_tags cascade away with it,
// so no usage counter can be left dangling.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tags WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
