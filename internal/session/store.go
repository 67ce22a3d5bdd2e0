package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/ledger"
)

var ErrNotFound = errors.New("session not found")

// Session is one authenticated user's in-flight state. The ledger it owns is
// created at login, seeded with the fixed allocation, and discarded at logout.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	Owner     string         `json:"owner"`
	Ledger    *ledger.Ledger `json:"ledger"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store holds sessions keyed by ID. Implementations must return copies that
// the caller may mutate freely; only Save publishes changes.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Ledger = s.Ledger.Clone()
	return &c
}
