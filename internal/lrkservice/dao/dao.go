// Package dao defines the persistence-layer entities and repository
// interfaces used by the build service: registered users and a history of
// table builds. Concrete implementations live in subpackages (sqlite in
// particular); callers should depend only on the interfaces here.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors every repository implementation must map its
// backend-specific failures onto.
var (
	ErrNotFound            = errors.New("entity not found")
	ErrConstraintViolation = errors.New("constraint violation")
)

// User is a registered build-service account.
type User struct {
	ID             uuid.UUID
	Username       string
	PasswordHash   string // bcrypt hash string, as bcrypt produces it
	LastLogoutTime time.Time
}

// BuildRecord is one row of build history: a grammar submission and its
// outcome, keyed by the table id a later parse request references.
type BuildRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	GrammarHash string // sha256 of the submitted grammar text, hex
	K           int
	Success     bool
	StateCount  int
	ConflictMsg string // populated only when Success is false
	TableData   []byte // the serialized table, populated only when Success
	CreatedAt   time.Time
}

// UserRepository stores registered users.
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
}

// BuildRepository stores build history rows.
type BuildRepository interface {
	Create(ctx context.Context, rec BuildRecord) (BuildRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (BuildRecord, error)
	GetAllForUser(ctx context.Context, userID uuid.UUID) ([]BuildRecord, error)
}

// Store bundles the repositories the build service needs and owns their
// shared backend connection.
type Store interface {
	Users() UserRepository
	Builds() BuildRepository
	Close() error
}
