package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Lead activity actions recorded in the audit trail.
const (
	ActivityCreated       = "created"
	ActivityStatusChanged = "status_changed"
	ActivityUpdated       = "updated"
	ActivityDeleted       = "deleted"
	ActivityTagsAdded     = "tags_added"
	ActivityTagsRemoved   = "tags_removed"
)

// AddActivity appends an entry to the lead's durable audit trail.
func (r *Repository) AddActivity(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, userID uuid.UUID, action string, meta map[string]interface{}) error {
	metaJSON := []byte("{}")
	if meta != nil {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		metaJSON = encoded
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, tenant_id, user_id, action, meta)
		VALUES ($1, $2, $3, $4, $5)
	`, leadID, tenantID, userID, action, metaJSON)
	return err
}

// ListActivity returns the most recent audit trail entries for a lead,
// newest first.
func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID, tenantID uuid.UUID, limit int) ([]Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, tenant_id, user_id, action, meta, created_at
		FROM lead_activity
		WHERE lead_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, leadID, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var item Activity
		var metaJSON []byte
		if err := rows.Scan(&item.ID, &item.LeadID, &item.TenantID, &item.UserID, &item.Action, &metaJSON, &item.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &item.Meta); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
