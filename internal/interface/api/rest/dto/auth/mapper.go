package auth

import (
	"uploadit/internal/application/ports"
)

func ToResponseSession(s ports.Session) Session {
	return Session{
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		UserID:      s.UserID,
		Email:       s.Email,
		ExpiresAt:   s.ExpiresAt,
	}
}
