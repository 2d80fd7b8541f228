package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a submitter record, created on first submission from a new
// identity. The uniqueness engine only ever reads it; the authenticity
// collaborator owns the failure counter.
type User struct {
	Seq                     int64
	ID                      string
	ExternalID              string
	FailedAuthenticityCount int
	IsBanned                bool
	CreatedAt               time.Time
}

// FindOrCreateUser returns the user for an external identity, creating it
// on first contact (first-submission grace). More than one row for the same
// identity is an IntegrityError.
func (s *Store) FindOrCreateUser(ctx context.Context, externalID string) (*User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("find or create user: external id is empty")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("find or create user: generate id: %w", err)
	}

	// Insert-or-ignore then select: the UNIQUE index on external_id makes
	// concurrent first submissions converge on a single row.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, external_id)
		VALUES (?, ?)
		ON CONFLICT(external_id) DO NOTHING
	`, id.String(), externalID)
	if err != nil {
		return nil, fmt.Errorf("find or create user: insert: %w", err)
	}

	return s.findUser(ctx, externalID)
}

// RecordFailedAuthenticity increments the user's failed-authenticity
// counter and bans the user once the counter reaches banLimit. A banLimit
// of 0 disables banning.
func (s *Store) RecordFailedAuthenticity(ctx context.Context, externalID string, banLimit int) (*User, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET failed_authenticity_count = failed_authenticity_count + 1
		WHERE external_id = ?
	`, externalID)
	if err != nil {
		return nil, fmt.Errorf("record failed authenticity: %w", err)
	}

	if banLimit > 0 {
		_, err = s.db.ExecContext(ctx, `
			UPDATE users
			SET is_banned = 1
			WHERE external_id = ? AND failed_authenticity_count >= ?
		`, externalID, banLimit)
		if err != nil {
			return nil, fmt.Errorf("record failed authenticity: ban: %w", err)
		}
	}

	return s.findUser(ctx, externalID)
}

func (s *Store) findUser(ctx context.Context, externalID string) (*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, external_id, failed_authenticity_count, is_banned, created_at
		FROM users
		WHERE external_id = ?
		ORDER BY seq ASC
		LIMIT 2
	`, externalID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.Seq, &u.ID, &u.ExternalID, &u.FailedAuthenticityCount, &u.IsBanned, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			u.CreatedAt = t
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	switch len(users) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &users[0], nil
	default:
		return nil, &IntegrityError{
			Table:  "users",
			Column: "external_id",
			Value:  externalID,
			Rows:   len(users),
		}
	}
}
