package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nerrad567/nb-core/internal/infrastructure/database"
	_ "github.com/nerrad567/nb-core/migrations"
)

// testDB opens a migrated temporary database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db.DB
}

// fastHasher keeps Argon2id cheap enough for unit tests.
func fastHasher() *Argon2Hasher {
	return NewArgon2Hasher(1024, 1, 1)
}

// countingHasher counts Verify calls.
type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(password, encoded string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(password, encoded)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) PublishAuthEvent(_ context.Context, e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// newTestService returns a service over a fresh database.
func newTestService(t *testing.T) (*Service, *recordingPublisher, *countingHasher) {
	t.Helper()

	db := testDB(t)
	pub := &recordingPublisher{}
	hasher := &countingHasher{PasswordHasher: fastHasher()}

	svc, err := NewService(Config{
		Users:  NewUserRepository(db),
		Tokens: NewTokenRepository(db),
		Hasher: hasher,
		Events: pub,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, pub, hasher
}
