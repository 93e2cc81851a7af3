package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type credentialRepo struct {
	db *sql.DB
}

func (r *credentialRepo) Save(ctx context.Context, c Credential) error {
	savedAt := c.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO credentials (id, user_id, email, access_token, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			access_token = excluded.access_token,
			saved_at = excluded.saved_at`,
		c.UserID, c.Email, c.AccessToken, savedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (r *credentialRepo) Load(ctx context.Context) (*Credential, error) {
	var c Credential
	var savedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, access_token, saved_at FROM credentials WHERE id = 1`,
	).Scan(&c.UserID, &c.Email, &c.AccessToken, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	c.SavedAt = time.Unix(0, savedAt)
	return &c, nil
}

func (r *credentialRepo) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
