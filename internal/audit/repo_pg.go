package audit

import (
	"context"
	"database/sql"
)

// PGRepo appends audit events to Postgres. Insert-only by construction.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	agent_id   TEXT NOT NULL DEFAULT '',
	call_sid   TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (r *PGRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, auditSchema)
	return err
}

func (r *PGRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, agent_id, call_sid, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.Type, e.AgentID, e.CallSid, e.Message, e.CreatedAt)
	return err
}
