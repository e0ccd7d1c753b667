package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrStatusChanged signals that a compare-and-set update observed a
	// different committed status than expected.
	ErrStatusChanged = errors.New("lead status changed concurrently")
)

const leadColumns = `id, tenant_id, name, email, phone, company, position, status, source, interests, notes, lgpd_consent, created_at, updated_at`

type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

type Lead struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Email       string
	Phone       string
	Company     string
	Position    string
	Status      string
	Source      string
	Interests   []string
	Tags        []uuid.UUID
	Notes       string
	LGPDConsent bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateLeadParams struct {
	TenantID    uuid.UUID
	Name        string
	Email       string
	Phone       string
	Company     string
	Position    string
	Source      string
	Interests   []string
	Notes       string
	LGPDConsent bool
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.Name, &lead.Email, &lead.Phone, &lead.Company, &lead.Position,
		&lead.Status, &lead.Source, &lead.Interests, &lead.Notes, &lead.LGPDConsent,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, `
		INSERT INTO leads (tenant_id, name, email, phone, company, position, status, source, interests, notes, lgpd_consent)
		VALUES ($1, $2, $3, $4, $5, $6, 'new', $7, $8, $9, $10)
		RETURNING `+leadColumns,
		params.TenantID, params.Name, params.Email, params.Phone, params.Company, params.Position,
		params.Source, params.Interests, params.Notes, params.LGPDConsent,
	))
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.db.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	tags, err := r.leadTags(ctx, []uuid.UUID{lead.ID})
	if err != nil {
		return Lead{}, err
	}
	lead.Tags = tags[lead.ID]
	return lead, nil
}

type UpdateLeadParams struct {
	Name         *string
	Email        *string
	Phone        *string
	Company      *string
	Position     *string
	Notes        *string
	Interests    []string
	InterestsSet bool
	LGPDConsent  *bool
	// Status is applied only when ExpectedStatus matches the committed row,
	// so transition legality is always checked against the latest state.
	Status         *string
	ExpectedStatus *string
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params UpdateLeadParams) (Lead, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	fields := []struct {
		enabled bool
		column  string
		value   interface{}
	}{
		{params.Name != nil, "name", derefString(params.Name)},
		{params.Email != nil, "email", derefString(params.Email)},
		{params.Phone != nil, "phone", derefString(params.Phone)},
		{params.Company != nil, "company", derefString(params.Company)},
		{params.Position != nil, "position", derefString(params.Position)},
		{params.Notes != nil, "notes", derefString(params.Notes)},
		{params.InterestsSet, "interests", params.Interests},
		{params.LGPDConsent != nil, "lgpd_consent", params.LGPDConsent},
		{params.Status != nil, "status", params.Status},
	}

	for _, field := range fields {
		if !field.enabled {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field.column, argIdx))
		args = append(args, field.value)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id, tenantID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id, tenantID)

	whereExtra := ""
	if params.ExpectedStatus != nil {
		whereExtra = fmt.Sprintf(" AND status = $%d", argIdx+2)
		args = append(args, *params.ExpectedStatus)
	}

	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $%d AND tenant_id = $%d%s
		RETURNING `+leadColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, whereExtra)

	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		if params.ExpectedStatus == nil {
			return Lead{}, ErrNotFound
		}
		// Distinguish a vanished lead from a lost status race.
		if _, getErr := r.GetByID(ctx, id, tenantID); getErr != nil {
			return Lead{}, getErr
		}
		return Lead{}, ErrStatusChanged
	}
	if err != nil {
		return Lead{}, err
	}

	tags, err := r.leadTags(ctx, []uuid.UUID{lead.ID})
	if err != nil {
		return Lead{}, err
	}
	lead.Tags = tags[lead.ID]
	return lead, nil
}

// Delete hard-deletes a lead. Its tag memberships cascade away, so the
// usage counters of the affected tags are recomputed in the same
// transaction before it commits.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Collect memberships before the cascade wipes them.
	tagIDs, err := leadTagIDs(ctx, tx, id)
	if err != nil {
		return err
	}

	result, err := tx.Exec(ctx, "DELETE FROM leads WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if len(tagIDs) > 0 {
		if err := recountTagUsage(ctx, tx, tenantID, tagIDs); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func leadTagIDs(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `SELECT tag_id FROM lead_tags WHERE lead_id = $1`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tagIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var tagID uuid.UUID
		if err := rows.Scan(&tagID); err != nil {
			return nil, err
		}
		tagIDs = append(tagIDs, tagID)
	}
	return tagIDs, rows.Err()
}

type ListParams struct {
	TenantID      uuid.UUID
	Search        string
	Status        *string
	Source        *string
	TagID         *uuid.UUID
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
	SortBy        string
	SortOrder     string
	Offset        int
	Limit         int
}

// List runs the deterministic query plan: tenant scope, then filters, then a
// stable sort with id as tie-break, then count-before-pagination, then the
// page window.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads l WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortColumn := mapLeadSortColumn(params.SortBy)
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)

	query := fmt.Sprintf(`
		SELECT l.id, l.tenant_id, l.name, l.email, l.phone, l.company, l.position, l.status, l.source, l.interests, l.notes, l.lgpd_consent, l.created_at, l.updated_at
		FROM leads l
		WHERE %s
		ORDER BY %s %s, l.id ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.TenantID, &lead.Name, &lead.Email, &lead.Phone, &lead.Company, &lead.Position,
			&lead.Status, &lead.Source, &lead.Interests, &lead.Notes, &lead.LGPDConsent,
			&lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
		ids = append(ids, lead.ID)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	tags, err := r.leadTags(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range leads {
		leads[i].Tags = tags[leads[i].ID]
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"l.tenant_id = $1"}
	args := []interface{}{params.TenantID}
	argIdx := 2

	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(l.name ILIKE $%d OR l.email ILIKE $%d OR l.company ILIKE $%d)",
			argIdx, argIdx, argIdx,
		))
		args = append(args, searchPattern)
		argIdx++
	}
	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Source != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.source = $%d", argIdx))
		args = append(args, *params.Source)
		argIdx++
	}
	if params.TagID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM lead_tags lt WHERE lt.lead_id = l.id AND lt.tag_id = $%d)", argIdx))
		args = append(args, *params.TagID)
		argIdx++
	}
	if params.CreatedAtFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.created_at >= $%d", argIdx))
		args = append(args, *params.CreatedAtFrom)
		argIdx++
	}
	if params.CreatedAtTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.created_at <= $%d", argIdx))
		args = append(args, *params.CreatedAtTo)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func mapLeadSortColumn(sortBy string) string {
	switch sortBy {
	case "name":
		return "l.name"
	case "email":
		return "l.email"
	case "company":
		return "l.company"
	case "status":
		return "l.status"
	default:
		return "l.created_at"
	}
}

func (r *Repository) leadTags(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID, len(leadIDs))
	if len(leadIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT lead_id, tag_id FROM lead_tags
		WHERE lead_id = ANY($1)
		ORDER BY lead_id, tag_id
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var leadID, tagID uuid.UUID
		if err := rows.Scan(&leadID, &tagID); err != nil {
			return nil, err
		}
		result[leadID] = append(result[leadID], tagID)
	}
	return result, rows.Err()
}
