// Package draft stores hunt-wizard drafts locally so an interrupted
// session resumes where it stopped, one draft per user.
package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/breadcrumbsapp/breadcrumbs/internal/hunt"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, userID string, d *hunt.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, user_id, data, updated_at)
		VALUES (?, ?, jsonb(?), strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (user_id) DO UPDATE SET
			data = jsonb(excluded.data),
			updated_at = excluded.updated_at
	`, d.ID.String(), userID, string(data))
	return err
}

func (s *Store) Load(ctx context.Context, userID string) (*hunt.Draft, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT json(data) FROM drafts WHERE user_id = ?
	`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, hunt.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}

	var d hunt.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return &d, nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE user_id = ?`, userID)
	return err
}
