package agents

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"frontdesk/pkg/utils"

	"github.com/google/uuid"
)

// PGRepo stores the agent pool in Postgres.
//
// The reservation is a single conditional update, so two webhooks racing for
// the last available agent cannot both claim it: the row is claimed inside one
// statement guarded by FOR UPDATE SKIP LOCKED.
type PGRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db, clock: time.Now}
}

const agentsSchema = `
CREATE TABLE IF NOT EXISTS agents (
	agent_id     TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	phone_number TEXT NOT NULL UNIQUE,
	status       TEXT NOT NULL DEFAULT 'available',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS agents_status_idx ON agents (status);
`

// EnsureSchema creates the agents table if missing.
func (r *PGRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, agentsSchema)
	return err
}

// Seed provisions the initial agent pool. Existing rows (matched by phone
// number) are left untouched so restarts never clobber live status.
func (r *PGRepo) Seed(ctx context.Context, seed []Agent) error {
	const q = `
INSERT INTO agents (agent_id, name, phone_number, status, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (phone_number) DO NOTHING
`
	now := r.clock().UTC()
	for _, a := range seed {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Status == "" {
			a.Status = StatusAvailable
		}
		if _, err := r.db.ExecContext(ctx, q, a.ID, a.Name, a.PhoneNumber, a.Status, now); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) ReserveAvailable(ctx context.Context) (Agent, bool, error) {
	const q = `
UPDATE agents
SET status = 'busy', updated_at = $1
WHERE agent_id = (
	SELECT agent_id FROM agents
	WHERE status = 'available'
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING agent_id, name, phone_number, status, updated_at
`
	var out Agent
	var found bool
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, q, r.clock().UTC()).Scan(
			&out.ID,
			&out.Name,
			&out.PhoneNumber,
			&out.Status,
			&out.UpdatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return Agent{}, false, err
	}
	return out, found, nil
}

func (r *PGRepo) Release(ctx context.Context, agentID string) error {
	const q = `
UPDATE agents SET status = 'available', updated_at = $2
WHERE agent_id = $1
`
	res, err := r.db.ExecContext(ctx, q, agentID, r.clock().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SetStatus(ctx context.Context, agentID string, status Status) (Agent, error) {
	if !ValidStatus(status) {
		return Agent{}, ErrInvalidStatus
	}
	const q = `
UPDATE agents SET status = $2, updated_at = $3
WHERE agent_id = $1
RETURNING agent_id, name, phone_number, status, updated_at
`
	var a Agent
	err := r.db.QueryRowContext(ctx, q, agentID, status, r.clock().UTC()).Scan(
		&a.ID,
		&a.Name,
		&a.PhoneNumber,
		&a.Status,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	if err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (r *PGRepo) GetByID(ctx context.Context, agentID string) (Agent, error) {
	const q = `
SELECT agent_id, name, phone_number, status, updated_at
FROM agents
WHERE agent_id = $1
`
	var a Agent
	err := r.db.QueryRowContext(ctx, q, agentID).Scan(
		&a.ID,
		&a.Name,
		&a.PhoneNumber,
		&a.Status,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	if err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Agent, error) {
	const q = `
SELECT agent_id, name, phone_number, status, updated_at
FROM agents
ORDER BY name
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.PhoneNumber, &a.Status, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DefaultSeed mirrors the initial operator roster. phoneOverride replaces the
// first agent's number when non-empty (useful for pointing transfers at a real
// phone in development).
func DefaultSeed(phoneOverride string) []Agent {
	alice := Agent{ID: uuid.NewString(), Name: "Alice", PhoneNumber: "+15558675309", Status: StatusAvailable}
	if phoneOverride != "" {
		alice.PhoneNumber = phoneOverride
	}
	bob := Agent{ID: uuid.NewString(), Name: "Bob", PhoneNumber: "+15552223333", Status: StatusAvailable}
	return []Agent{alice, bob}
}
