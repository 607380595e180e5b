package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type (
	// Identity is who performs an operation, taken from a validated session token.
	Identity struct {
		UserID uuid.UUID
		Email  string
	}
	Session struct {
		AccessToken string
		UserID      uuid.UUID
		Email       string
		ExpiresAt   time.Time
	}
	// SessionListener receives the new session, nil after sign-out.
	SessionListener func(s *Session)
)

type Auth interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) *Session
	OnSessionChange(fn SessionListener)
}
