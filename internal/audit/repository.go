// Package audit stores a durable trail of account activity and catalog
// imports in the audit_logs table.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the trail.
const (
	ActionRegistered = "registered"
	ActionLogin      = "login"
	ActionSeed       = "seed"
)

// Sources identify which surface produced an entry.
const (
	SourceAPI = "api"
	SourceCLI = "cli"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout is fixed width so created_at sorts correctly as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Entry is one audit trail row. UserID is zero for entries not tied to a user.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    int64          `json:"user_id,omitempty"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter controls which entries List returns.
type Filter struct {
	Action string // optional
	UserID int64  // optional; zero matches every user
	Limit  int    // default 50, max 200
	Offset int
}

// ListResult is one page of entries, most recent first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the audit trail operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository implements Repository on the audit_logs table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new audit repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Create inserts entry. ID and CreatedAt are filled in when empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.Action == "" || entry.Source == "" {
		return fmt.Errorf("audit entry requires action and source")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	var details *string
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		details = &s
	}

	var userID any
	if entry.UserID != 0 {
		userID = entry.UserID
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, user_id, source, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, userID, entry.Source, details,
		entry.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		conditions []string
		args       []any
	)
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.UserID != 0 {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs " + where //nolint:gosec // conditions are fixed strings with ? placeholders
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := "SELECT id, action, user_id, source, details, created_at FROM audit_logs " + where + //nolint:gosec // as above
		" ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			userID    sql.NullInt64
			details   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Action, &userID, &e.Source, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.UserID = userID.Int64
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("decoding audit details for %s: %w", e.ID, err)
			}
		}
		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
