package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// execQuerier is the slice of pgx.Tx the tag mutation helpers need.
type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ResolveTagIDs returns which of the given tag ids exist within the tenant.
func (r *Repository) ResolveTagIDs(ctx context.Context, tenantID uuid.UUID, tagIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	resolved := make(map[uuid.UUID]bool, len(tagIDs))
	if len(tagIDs) == 0 {
		return resolved, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id FROM tags WHERE tenant_id = $1 AND id = ANY($2)
	`, tenantID, tagIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		resolved[id] = true
	}
	return resolved, rows.Err()
}

// AddLeadTags inserts the given tags into the lead's tag set. Re-adding an
// already-present tag is a no-op. Usage counters are recomputed from actual
// membership inside the same transaction, so concurrent bulk operations
// never drift them.
func (r *Repository) AddLeadTags(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockLead(ctx, tx, leadID, tenantID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_tags (lead_id, tag_id)
		SELECT $1, t.id FROM tags t WHERE t.tenant_id = $2 AND t.id = ANY($3)
		ON CONFLICT (lead_id, tag_id) DO NOTHING
	`, leadID, tenantID, tagIDs); err != nil {
		return err
	}

	if err := recountTagUsage(ctx, tx, tenantID, tagIDs); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET updated_at = now() WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RemoveLeadTags deletes the given tags from the lead's tag set. Removing an
// absent tag is a no-op.
func (r *Repository) RemoveLeadTags(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockLead(ctx, tx, leadID, tenantID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM lead_tags WHERE lead_id = $1 AND tag_id = ANY($2)
	`, leadID, tagIDs); err != nil {
		return err
	}

	if err := recountTagUsage(ctx, tx, tenantID, tagIDs); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET updated_at = now() WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// lockLead serializes concurrent tag mutations on the same lead and verifies
// the lead belongs to the tenant.
func lockLead(ctx context.Context, tx execQuerier, leadID uuid.UUID, tenantID uuid.UUID) error {
	var found uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT id FROM leads WHERE id = $1 AND tenant_id = $2 FOR UPDATE
	`, leadID, tenantID).Scan(&found)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func recountTagUsage(ctx context.Context, tx execQuerier, tenantID uuid.UUID, tagIDs []uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE tags SET usage_count = (
			SELECT COUNT(*) FROM lead_tags lt WHERE lt.tag_id = tags.id
		), updated_at = now()
		WHERE tenant_id = $1 AND id = ANY($2)
	`, tenantID, tagIDs)
	return err
}
