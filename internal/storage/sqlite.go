package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/minigames/internal/room"
)

// SQLite stores rooms as JSONB documents in the rooms table created by the
// migrations package. Version and expiry live in their own columns so the
// compare-and-swap is a single statement.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLite(db *sql.DB, ttl time.Duration) *SQLite {
	return &SQLite{db: db, ttl: ttl, now: time.Now}
}

func (s *SQLite) expiresAt() int64 {
	if s.ttl <= 0 {
		return 0
	}
	return s.now().Add(s.ttl).UnixMilli()
}

func (s *SQLite) Load(ctx context.Context, id string) (*room.Room, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM rooms WHERE id = ? AND (expires_at = 0 OR expires_at > ?)`,
		id, s.now().UnixMilli(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, room.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var r room.Room
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLite) Save(ctx context.Context, r *room.Room) error {
	next := *r
	next.Version++
	data, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	now := s.now().UnixMilli()

	var res sql.Result
	if r.Version == 0 {
		// A new room may only replace an expired row with the same id.
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO rooms (id, game_id, status, version, expires_at, data)
			 VALUES (?, ?, ?, ?, ?, jsonb(?))
			 ON CONFLICT(id) DO UPDATE SET
			   game_id = excluded.game_id, status = excluded.status, version = excluded.version,
			   expires_at = excluded.expires_at, data = excluded.data
			 WHERE rooms.expires_at != 0 AND rooms.expires_at <= ?`,
			next.RoomID, next.GameID, next.Status, next.Version, s.expiresAt(), string(data), now,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE rooms SET status = ?, version = ?, expires_at = ?, data = jsonb(?)
			 WHERE id = ? AND version = ? AND (expires_at = 0 OR expires_at > ?)`,
			next.Status, next.Version, s.expiresAt(), string(data), next.RoomID, r.Version, now,
		)
	}
	if err != nil {
		return fmt.Errorf("writing room: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		if r.Version == 0 {
			return room.ErrConflict
		}
		return s.missingOrConflict(ctx, r.RoomID, now)
	}

	r.Version = next.Version
	if r.Version == 1 {
		if _, err := s.Sweep(ctx); err != nil {
			return fmt.Errorf("sweeping expired rooms: %w", err)
		}
	}
	return nil
}

func (s *SQLite) missingOrConflict(ctx context.Context, id string, now int64) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM rooms WHERE id = ? AND (expires_at = 0 OR expires_at > ?)`, id, now,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return room.ErrNotFound
	}
	if err != nil {
		return err
	}
	return room.ErrConflict
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	return err
}

// Sweep removes expired rooms and returns how many were deleted.
func (s *SQLite) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM rooms WHERE expires_at != 0 AND expires_at <= ?`, s.now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Check pings the database for the health endpoint.
func (s *SQLite) Check(ctx context.Context) error { return s.db.PingContext(ctx) }
