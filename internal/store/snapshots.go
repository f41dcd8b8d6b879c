package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flaxos/Pizzatorio/internal/snapshot"
)

// ErrNotFound is returned when no snapshot matches a load or list
// request.
var ErrNotFound = errors.New("snapshot not found")

// Meta describes a stored snapshot without its payload.
type Meta struct {
	ID        int64
	SessionID string
	Version   int
	Ticks     int64
	SimTime   float64
	StateHash string
	CreatedAt string
}

// SaveSnapshot encodes and inserts a snapshot, returning its row ID.
func (s *Store) SaveSnapshot(ctx context.Context, st *snapshot.State) (int64, error) {
	data, hash, err := snapshot.Encode(st)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (session_id, version, ticks, sim_time, state_hash, state)
		VALUES (?, ?, ?, ?, ?, ?)
	`, st.SessionID, st.Version, st.Ticks, st.Time, hash, data)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// LoadByID loads and verifies one snapshot.
func (s *Store) LoadByID(ctx context.Context, id int64) (*snapshot.State, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT state, state_hash FROM snapshots WHERE id = ?
	`, id)
	return scanSnapshot(row)
}

// LoadLatest loads the most recent snapshot for a session. An empty
// sessionID means the most recent snapshot overall.
func (s *Store) LoadLatest(ctx context.Context, sessionID string) (*snapshot.State, error) {
	var row *sql.Row
	if sessionID == "" {
		row = s.db.QueryRowContext(ctx, `
			SELECT state, state_hash FROM snapshots ORDER BY id DESC LIMIT 1
		`)
	} else {
		row = s.db.QueryRowContext(ctx, `
			SELECT state, state_hash FROM snapshots
			WHERE session_id = ? ORDER BY id DESC LIMIT 1
		`, sessionID)
	}
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*snapshot.State, error) {
	var data []byte
	var hash string
	if err := row.Scan(&data, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := snapshot.Verify(data, hash); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	st, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return st, nil
}

// List returns snapshot metadata, newest first. An empty sessionID
// lists every session; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, sessionID string, limit int) ([]Meta, error) {
	query := `
		SELECT id, session_id, version, ticks, sim_time, state_hash, created_at
		FROM snapshots
	`
	var args []any
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Version, &m.Ticks, &m.SimTime, &m.StateHash, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// DeleteSession removes every snapshot of a session, returning how
// many rows went away.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return n, nil
}
