package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"planboard/pkg/database"

	"github.com/jackc/pgx/v5"
)

// AuditEntry is one commit-grade operator action: a save, a force-save, a
// release, an unrelease or a persisted pairing.
type AuditEntry struct {
	ID        string                 `json:"id"`
	EventID   string                 `json:"event_id"`
	Version   int                    `json:"version"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Audit actions recorded by the editor.
const (
	AuditActionSave          = "save"
	AuditActionForceSave     = "force_save"
	AuditActionRelease       = "release"
	AuditActionUnrelease     = "unrelease"
	AuditActionPairPersisted = "pair_persisted"
)

// AuditLog records and lists operator actions. A nil implementation is
// allowed; auditing is best effort and never blocks an action.
type AuditLog interface {
	RecordAction(ctx context.Context, entry *AuditEntry) error
	RecentActions(ctx context.Context, eventID string, limit int) ([]AuditEntry, error)
}

type AuditRepository struct {
	db *database.PostgresDB
}

func NewAuditRepository(db *database.PostgresDB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordAction inserts one audit row.
func (r *AuditRepository) RecordAction(ctx context.Context, entry *AuditEntry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal audit detail: %w", err)
	}

	query := `
		INSERT INTO board_audit (event_id, version, action, actor, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		entry.EventID,
		entry.Version,
		entry.Action,
		entry.Actor,
		detail,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record audit action: %w", err)
	}
	return nil
}

// RecentActions lists the newest audit rows for an event.
func (r *AuditRepository) RecentActions(ctx context.Context, eventID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, event_id, version, action, actor, detail, created_at
		FROM board_audit
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit actions: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		var detail []byte
		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.Version, &entry.Action, &entry.Actor, &detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		if len(detail) > 0 {
			_ = json.Unmarshal(detail, &entry.Detail)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to read audit rows: %w", err)
	}

	return entries, nil
}
