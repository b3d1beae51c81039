// Package session tracks issued login sessions so that a signed token can
// be revoked before it expires.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store persists sessions keyed by ID. Expired sessions behave as missing.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Expire(ctx context.Context, id string, ttl time.Duration) error
	// DeleteByUser removes every session of userID and reports how many
	// were live.
	DeleteByUser(ctx context.Context, userID int) (int, error)
}

// New returns a fresh session for userID. ExpiresAt is filled in by Put.
func New(userID int) Session {
	return Session{ID: uuid.NewString(), UserID: userID}
}
