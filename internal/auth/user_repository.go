package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	// Create inserts user and, when token is non-nil, its token in one
	// transaction. Returns ErrConflict when the username is taken.
	Create(ctx context.Context, user *User, token *Token) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, username, email, password_hash, first_name, last_name, is_active, date_joined"

// Create inserts a new account and optionally its token.
// On success user.ID, user.DateJoined and the token's UserID/CreatedAt are set.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User, token *Token) error {
	now := time.Now().UTC().Truncate(time.Second)
	stamp := now.Format(time.RFC3339)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, is_active, date_joined)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		boolToInt(user.IsActive), stamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("creating user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}

	if token != nil {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO auth_tokens (key, user_id, created_at) VALUES (?, ?, ?)",
			token.Key, id, stamp,
		); err != nil {
			return fmt.Errorf("creating token: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}

	user.ID = id
	user.DateJoined = now
	if token != nil {
		token.UserID = id
		token.CreatedAt = now
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetByUsername retrieves a user by username. The match is exact.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username))
}

// Count returns the total number of user accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u          User
		isActive   int
		dateJoined string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &isActive, &dateJoined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.IsActive = isActive != 0
	u.DateJoined, _ = time.Parse(time.RFC3339, dateJoined) //nolint:errcheck // written by Create
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
