package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"uploadit/internal/application/ports"
	"uploadit/internal/domain/user"
	userDB "uploadit/internal/infrastructure/db/postgres/user"
	"uploadit/internal/infrastructure/jwt"
	"uploadit/internal/infrastructure/metrics"
)

const (
	MinPasswordLen = 6
	MaxPasswordLen = 72 // bcrypt safe

	DefaultSessionTTL = time.Hour
)

// AuthService owns the single current session of the device.
type AuthService struct {
	users      user.Repository
	jwtService *jwt.Service
	mCounter   *prometheus.CounterVec
	logger     *zap.Logger
	ttl        time.Duration
	hashCost   int

	mu        sync.RWMutex
	session   *ports.Session
	listeners []ports.SessionListener
}

func NewAuthService(
	users user.Repository,
	jwtService *jwt.Service,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
	ttl time.Duration,
) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		mCounter:   mCounter,
		logger:     logger,
		ttl:        ttl,
		hashCost:   bcrypt.DefaultCost,
	}
}

func (as *AuthService) SignUp(ctx context.Context, email, password string) (string, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u, err := as.users.CreateUser(ctx, user.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, userDB.ErrEmailAlreadyExists) {
			return "", fmt.Errorf("%w: email already registered", ErrAuth)
		}
		return "", err
	}

	as.logger.Info("user signed up", zap.Stringer("user_uuid", u.UUID))

	return "Account created for " + u.Email + ". You can sign in now.", nil
}

func (as *AuthService) SignIn(ctx context.Context, email, password string) (*ports.Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		as.mCounter.WithLabelValues(metrics.SignInsFailed).Inc()
		return nil, err
	}

	u, err := as.users.FetchUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		as.mCounter.WithLabelValues(metrics.SignInsFailed).Inc()
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		as.mCounter.WithLabelValues(metrics.SignInsFailed).Inc()
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}

	expiresAt := time.Now().Add(as.ttl)
	token, err := as.jwtService.GenerateJWT(u.UUID.String(), u.Email, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s := &ports.Session{
		AccessToken: token,
		UserID:      u.UUID,
		Email:       u.Email,
		ExpiresAt:   expiresAt,
	}
	as.setSession(s)
	as.mCounter.WithLabelValues(metrics.SignIns).Inc()

	return s, nil
}

func (as *AuthService) SignOut(_ context.Context) error {
	as.setSession(nil)
	return nil
}

// GetSession returns nil when nobody is signed in or the session expired.
func (as *AuthService) GetSession(_ context.Context) *ports.Session {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if as.session == nil || !time.Now().Before(as.session.ExpiresAt) {
		return nil
	}
	s := *as.session
	return &s
}

func (as *AuthService) OnSessionChange(fn ports.SessionListener) {
	if fn == nil {
		return
	}
	as.mu.Lock()
	as.listeners = append(as.listeners, fn)
	as.mu.Unlock()
}

// IdentityFromClaims is how handlers learn who called them.
func IdentityFromClaims(userID, email string) (ports.Identity, error) {
	id, err := uuid.Parse(userID)
	if err != nil || email == "" {
		return ports.Identity{}, ErrAuth
	}
	return ports.Identity{UserID: id, Email: email}, nil
}

func (as *AuthService) setSession(s *ports.Session) {
	as.mu.Lock()
	as.session = s
	listeners := make([]ports.SessionListener, len(as.listeners))
	copy(listeners, as.listeners)
	as.mu.Unlock()

	for _, fn := range listeners {
		if s == nil {
			fn(nil)
			continue
		}
		cp := *s
		fn(&cp)
	}
}

func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrAuth)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email format", ErrAuth)
	}
	if l := utf8.RuneCountInString(password); l < MinPasswordLen || len(password) > MaxPasswordLen {
		return "", fmt.Errorf("%w: password length must be %d-%d characters", ErrAuth, MinPasswordLen, MaxPasswordLen)
	}
	return email, nil
}
