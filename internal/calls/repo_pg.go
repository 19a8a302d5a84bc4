package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo stores the call ledger in Postgres. Oracle outputs are kept as JSONB
// documents; they are opaque to the ledger.
type PGRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db, clock: time.Now}
}

const callsSchema = `
CREATE TABLE IF NOT EXISTS calls (
	call_sid      TEXT PRIMARY KEY,
	from_number   TEXT NOT NULL,
	to_number     TEXT NOT NULL,
	status        TEXT NOT NULL,
	transcript    TEXT NOT NULL DEFAULT '',
	extraction    JSONB,
	verification  JSONB,
	agent_id      TEXT,
	recording_url TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS calls_created_at_idx ON calls (created_at DESC);
`

// EnsureSchema creates the calls table if missing.
func (r *PGRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, callsSchema)
	return err
}

func (r *PGRepo) Create(ctx context.Context, callSid, from, to string) (Call, error) {
	const q = `
INSERT INTO calls (call_sid, from_number, to_number, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (call_sid) DO NOTHING
`
	now := r.clock().UTC()
	if _, err := r.db.ExecContext(ctx, q, callSid, from, to, StatusInitiated, now); err != nil {
		return Call{}, err
	}
	// Idempotency: return whatever row exists for this sid.
	return r.Get(ctx, callSid)
}

func (r *PGRepo) Update(ctx context.Context, callSid string, p Patch) (Call, error) {
	const q = `
UPDATE calls SET
	status        = COALESCE($2, status),
	transcript    = COALESCE($3, transcript),
	extraction    = COALESCE($4::jsonb, extraction),
	verification  = COALESCE($5::jsonb, verification),
	agent_id      = COALESCE($6, agent_id),
	recording_url = COALESCE($7, recording_url),
	updated_at    = $8
WHERE call_sid = $1
RETURNING call_sid, from_number, to_number, status, transcript, extraction, verification, agent_id, recording_url, created_at, updated_at
`
	extraction, err := marshalNullable(p.Extraction)
	if err != nil {
		return Call{}, err
	}
	verification, err := marshalNullable(p.Verification)
	if err != nil {
		return Call{}, err
	}

	row := r.db.QueryRowContext(ctx, q,
		callSid,
		nullableStatus(p.Status),
		p.Transcript,
		extraction,
		verification,
		p.AgentID,
		p.RecordingURL,
		r.clock().UTC(),
	)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return c, err
}

func (r *PGRepo) Get(ctx context.Context, callSid string) (Call, error) {
	const q = `
SELECT call_sid, from_number, to_number, status, transcript, extraction, verification, agent_id, recording_url, created_at, updated_at
FROM calls
WHERE call_sid = $1
`
	c, err := scanCall(r.db.QueryRowContext(ctx, q, callSid))
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return c, err
}

func (r *PGRepo) List(ctx context.Context) ([]Call, error) {
	const q = `
SELECT call_sid, from_number, to_number, status, transcript, extraction, verification, agent_id, recording_url, created_at, updated_at
FROM calls
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var c Call
	var extraction, verification, agentID sql.NullString
	if err := row.Scan(
		&c.CallSid,
		&c.From,
		&c.To,
		&c.Status,
		&c.Transcript,
		&extraction,
		&verification,
		&agentID,
		&c.RecordingURL,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Call{}, err
	}
	if extraction.Valid && extraction.String != "" {
		var e Extraction
		if err := json.Unmarshal([]byte(extraction.String), &e); err != nil {
			return Call{}, err
		}
		c.Extraction = &e
	}
	if verification.Valid && verification.String != "" {
		var v Verification
		if err := json.Unmarshal([]byte(verification.String), &v); err != nil {
			return Call{}, err
		}
		c.Verification = &v
	}
	if agentID.Valid {
		c.AgentID = agentID.String
	}
	return c, nil
}

func marshalNullable(v any) (*string, error) {
	switch t := v.(type) {
	case *Extraction:
		if t == nil {
			return nil, nil
		}
	case *Verification:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func nullableStatus(s *Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
