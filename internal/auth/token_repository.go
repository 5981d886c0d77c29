package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TokenRepository defines the interface for API token persistence.
type TokenRepository interface {
	// GetOrCreate returns the user's token, storing newKey as the token
	// when the user has none yet.
	GetOrCreate(ctx context.Context, userID int64, newKey string) (*Token, bool, error)
	GetByKey(ctx context.Context, key string) (*Token, error)
}

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new SQLite-backed token repository.
func NewTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// GetOrCreate returns the token of userID, creating it with newKey if needed.
// The boolean reports whether a token was created. The insert is a no-op when
// the user already has a token, so concurrent logins converge on one key.
func (r *SQLiteTokenRepository) GetOrCreate(ctx context.Context, userID int64, newKey string) (*Token, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (key, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		newKey, userID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, fmt.Errorf("token key collision: %w", err)
		}
		return nil, false, fmt.Errorf("creating token: %w", err)
	}
	created, _ := res.RowsAffected() //nolint:errcheck // always succeeds on SQLite

	tok, err := scanToken(r.db.QueryRowContext(ctx,
		"SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = ?", userID))
	if err != nil {
		return nil, false, err
	}
	return tok, created == 1, nil
}

// GetByKey retrieves a token by its key.
func (r *SQLiteTokenRepository) GetByKey(ctx context.Context, key string) (*Token, error) {
	return scanToken(r.db.QueryRowContext(ctx,
		"SELECT key, user_id, created_at FROM auth_tokens WHERE key = ?", key))
}

func scanToken(row *sql.Row) (*Token, error) {
	var (
		t         Token
		createdAt string
	)
	if err := row.Scan(&t.Key, &t.UserID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("scanning token: %w", err)
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &t, nil
}
