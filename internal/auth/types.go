package auth

import (
	"errors"
	"time"
)

// User is a registered account. Username always equals Email.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"-"`
	DateJoined   time.Time `json:"-"`
}

// Token is the single API credential of a user.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}

// Session is returned by a successful registration or login.
type Session struct {
	Token string
	User  *User
}

// RegisterInput carries the fields of a registration request.
// FirstName and LastName are optional.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// EventType names an account event.
type EventType string

// Account events.
const (
	EventRegistered EventType = "registered"
	EventLogin      EventType = "login"
)

// Event describes a successful registration or login.
// It carries no credentials or contact details.
type Event struct {
	Type      EventType `json:"type"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Domain errors.
var (
	ErrValidation         = errors.New("email and password are required")
	ErrConflict           = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("token not found")
)
