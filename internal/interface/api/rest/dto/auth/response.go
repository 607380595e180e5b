package auth

import (
	"time"

	"github.com/google/uuid"
)

type (
	Message struct {
		Message string `json:"message"`
	}
	Session struct {
		AccessToken string    `json:"access_token"`
		TokenType   string    `json:"token_type"`
		UserID      uuid.UUID `json:"user_id"`
		Email       string    `json:"email"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
)
