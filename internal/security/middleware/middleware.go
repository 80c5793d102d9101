package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/yourorg/jobtrack/internal/security/ratelimit"
	"github.com/yourorg/jobtrack/internal/session"
)

type identityContextKey struct{}

// SessionMiddleware resolves the session cookie to an Identity and stores it
// on the request context. It never rejects; route wrappers decide what an
// unauthenticated request means for them.
func SessionMiddleware(sessions *session.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := sessions.Resolve(r)
			if err == nil {
				ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth guards HTML routes: an unauthenticated request is redirected to
// the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentityFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthJSON guards JSON routes: an unauthenticated request gets 401
func RequireAuthJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentityFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware throttles the credential endpoints per client address
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || (r.URL.Path != "/login" && r.URL.Path != "/register") {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(clientAddr(r)) {
				log.Warn("rate limit exceeded",
					slog.String("path", r.URL.Path),
					slog.String("remote", r.RemoteAddr),
				)
				http.Error(w, "too many attempts, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentityFromContext returns the resolved identity, or nil
func GetIdentityFromContext(ctx context.Context) *session.Identity {
	if v := ctx.Value(identityContextKey{}); v != nil {
		return v.(*session.Identity)
	}
	return nil
}

// WithIdentity returns a context carrying the identity. Used by tests.
func WithIdentity(ctx context.Context, identity *session.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
