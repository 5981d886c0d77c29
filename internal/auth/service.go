package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

// EventPublisher receives account events. Publishing is best effort and
// must not block the request.
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, event Event)
}

// Config wires a Service.
type Config struct {
	Users  UserRepository
	Tokens TokenRepository
	Hasher PasswordHasher

	// TokenBytes is the entropy of new token keys. Zero means DefaultTokenBytes.
	TokenBytes int

	Events EventPublisher   // optional
	Logger *logging.Logger // optional
}

// Service registers accounts, logs users in and resolves API tokens.
type Service struct {
	users      UserRepository
	tokens     TokenRepository
	hasher     PasswordHasher
	tokenBytes int
	events     EventPublisher
	logger     *logging.Logger
	now        func() time.Time

	// dummyHash is verified for unknown emails so a failed login costs the
	// same whether or not the account exists.
	dummyOnce sync.Once
	dummyHash string
}

// NewService creates an account service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Users == nil || cfg.Tokens == nil || cfg.Hasher == nil {
		return nil, errors.New("auth: users, tokens and hasher are required")
	}
	if cfg.TokenBytes == 0 {
		cfg.TokenBytes = DefaultTokenBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Service{
		users:      cfg.Users,
		tokens:     cfg.Tokens,
		hasher:     cfg.Hasher,
		tokenBytes: cfg.TokenBytes,
		events:     cfg.Events,
		logger:     logger.With("component", "auth"),
		now:        time.Now,
	}, nil
}

// Register creates an account for in.Email and returns its new token.
//
// Returns ErrValidation when email or password is empty and ErrConflict when
// the email is already registered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if in.Email == "" || in.Password == "" {
		return nil, ErrValidation
	}

	if _, err := s.users.GetByUsername(ctx, in.Email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	key, err := GenerateKey(s.tokenBytes)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     in.Email,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	token := &Token{Key: key}

	// The UNIQUE constraint settles races between concurrent registrations.
	if err := s.users.Create(ctx, user, token); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	s.publish(ctx, EventRegistered, user.ID)

	return &Session{Token: token.Key, User: user}, nil
}

// Login checks credentials and returns the user's token, creating it on
// first login.
//
// Returns ErrValidation when a field is empty and ErrInvalidCredentials when
// the account is unknown, inactive, or the password is wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.users.GetByUsername(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.burnVerify(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for user %d: %w", user.ID, err)
	}
	if !ok || !user.IsActive {
		s.logger.Info("login rejected", "user_id", user.ID, "active", user.IsActive)
		return nil, ErrInvalidCredentials
	}

	key, err := GenerateKey(s.tokenBytes)
	if err != nil {
		return nil, err
	}
	token, created, err := s.tokens.GetOrCreate(ctx, user.ID, key)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "token_created", created)
	s.publish(ctx, EventLogin, user.ID)

	return &Session{Token: token.Key, User: user}, nil
}

// Authenticate resolves a token key to its active user.
// Returns ErrTokenInvalid for unknown keys and inactive accounts.
func (s *Service) Authenticate(ctx context.Context, key string) (*User, error) {
	if key == "" {
		return nil, ErrTokenInvalid
	}

	token, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("looking up token owner: %w", err)
	}
	if !user.IsActive {
		return nil, ErrTokenInvalid
	}
	return user, nil
}

// burnVerify runs one verification against a throwaway hash.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("nb-core-unknown-account")
		if err != nil {
			s.logger.Warn("creating dummy hash failed", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash) //nolint:errcheck // result is discarded
	}
}

func (s *Service) publish(ctx context.Context, typ EventType, userID int64) {
	if s.events == nil {
		return
	}
	s.events.PublishAuthEvent(ctx, Event{
		Type:      typ,
		UserID:    userID,
		Timestamp: s.now().UTC(),
	})
}
