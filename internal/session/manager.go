package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/internal/reliability/circuitbreaker"
)

// CookieName is the session cookie
const CookieName = "session"

const revocationKeyPrefix = "session:revoked:"

// ErrNoSession means the request carries no resolvable identity
var ErrNoSession = errors.New("no session")

// Identity is the authenticated user principal resolved from a session
type Identity struct {
	UserID   int64
	Username string
}

// Claims are the JWT claims carried by the session cookie
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RevocationStore keeps logged-out token IDs until they expire on their own.
// Backed by Redis in production.
type RevocationStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Manager issues, resolves and revokes cookie-bound sessions. It is a plain
// injected dependency, not process-global state.
type Manager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoked RevocationStore
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewManager creates a session manager
func NewManager(secret string, ttl time.Duration, revoked RevocationStore, logger *slog.Logger) *Manager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		secret:  []byte(secret),
		issuer:  "jobtrack",
		ttl:     ttl,
		revoked: revoked,
		breaker: circuitbreaker.New(5, 2, 30*time.Second),
		logger:  logger,
	}
}

// Issue creates a session for the user and sets the cookie on the response
func (m *Manager) Issue(w http.ResponseWriter, user *domain.User) error {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		m.logger.Error("failed to sign session token", slog.String("error", err.Error()))
		return errors.New("failed to establish session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Resolve returns the identity bound to the request's session cookie, or
// ErrNoSession when the cookie is absent, invalid, expired or revoked.
func (m *Manager) Resolve(r *http.Request) (*Identity, error) {
	claims, err := m.parseCookie(r)
	if err != nil {
		return nil, err
	}

	if m.isRevoked(r.Context(), claims.ID) {
		return nil, ErrNoSession
	}

	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// Revoke invalidates the request's session and clears the cookie. The token
// ID is kept in the revocation store only for the token's remaining validity.
func (m *Manager) Revoke(w http.ResponseWriter, r *http.Request) {
	if claims, err := m.parseCookie(r); err == nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if remaining > 0 {
			if err := m.revoked.Set(r.Context(), revocationKeyPrefix+claims.ID, "1", remaining); err != nil {
				m.logger.Error("failed to revoke session",
					slog.Int64("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) parseCookie(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoSession
	}

	return claims, nil
}

// isRevoked consults the revocation store through a circuit breaker. When the
// store is unreachable the check fails open: an unreachable Redis must not
// lock every user out.
func (m *Manager) isRevoked(ctx context.Context, jti string) bool {
	if m.revoked == nil || jti == "" {
		return false
	}

	if !m.breaker.Allow() {
		return false
	}

	revoked, err := m.revoked.Exists(ctx, revocationKeyPrefix+jti)
	if err != nil {
		m.breaker.RecordFailure()
		m.logger.Warn("revocation check failed", slog.String("error", err.Error()))
		return false
	}

	m.breaker.RecordSuccess()
	return revoked
}
