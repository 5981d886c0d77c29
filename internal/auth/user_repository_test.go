package auth

import (
	"context"
	"errors"
	"testing"
)

func newUser(email string) *User {
	return &User{
		Username:     email,
		Email:        email,
		FirstName:    "Mario",
		LastName:     "Rossi",
		PasswordHash: "$argon2id$placeholder",
		IsActive:     true,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := newUser("mario@example.com")
	token := &Token{Key: "0123456789abcdef0123456789abcdef01234567"}
	if err := repo.Create(ctx, user, token); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Create() did not set ID")
	}
	if user.DateJoined.IsZero() {
		t.Error("Create() did not set DateJoined")
	}
	if token.UserID != user.ID {
		t.Errorf("token.UserID = %d, want %d", token.UserID, user.ID)
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	byName, err := repo.GetByUsername(ctx, "mario@example.com")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}

	for _, got := range []*User{byID, byName} {
		if got.ID != user.ID || got.Email != user.Email || got.FirstName != "Mario" || got.LastName != "Rossi" {
			t.Errorf("got %+v, want fields of %+v", got, user)
		}
		if !got.IsActive {
			t.Error("IsActive = false, want true")
		}
		if !got.DateJoined.Equal(user.DateJoined) {
			t.Errorf("DateJoined = %v, want %v", got.DateJoined, user.DateJoined)
		}
	}

	tok, err := NewTokenRepository(db).GetByKey(ctx, token.Key)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if tok.UserID != user.ID {
		t.Errorf("stored token UserID = %d, want %d", tok.UserID, user.ID)
	}
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("dup@example.com"), nil); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	err := repo.Create(ctx, newUser("dup@example.com"), &Token{Key: "k"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("second Create() error = %v, want ErrConflict", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestUserRepository_CreateRollsBackOnTokenFailure(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("first@example.com"), &Token{Key: "shared"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, newUser("second@example.com"), &Token{Key: "shared"}); err == nil {
		t.Fatal("Create() with duplicate token key should fail")
	}

	if _, err := repo.GetByUsername(ctx, "second@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("user without token should be rolled back, GetByUsername() error = %v", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByUsername(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_UsernameIsExact(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("Mario@Example.com"), nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "mario@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername(other case) error = %v, want ErrUserNotFound", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(nil) {
		t.Error("isUniqueViolation(nil) = true")
	}
	if isUniqueViolation(errors.New("UNIQUE constraint failed: users.username")) {
		t.Error("plain error text should not count as a SQLite constraint error")
	}
}
