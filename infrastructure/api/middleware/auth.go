package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/helixml/patchlog/internal/log"
)

// User names assigned when a key carries no user or no keys are configured.
const (
	DefaultKeyUser = "default"
	LocalUser      = "local"
)

// APIKeyHeader carries the caller's key.
const APIKeyHeader = "X-API-KEY"

// AuthConfig maps API keys to the users they authenticate.
type AuthConfig struct {
	users   map[string]string
	enabled bool
}

// NewAuthConfigWithKeys parses entries of the form "user:key" or a bare
// "key". Blank entries are ignored; with none left auth is disabled.
func NewAuthConfigWithKeys(entries []string) AuthConfig {
	users := make(map[string]string, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, key, found := strings.Cut(entry, ":")
		if !found {
			user, key = DefaultKeyUser, entry
		}
		user, key = strings.TrimSpace(user), strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if user == "" {
			user = DefaultKeyUser
		}
		users[key] = user
	}
	if len(users) == 0 {
		return AuthConfig{enabled: false}
	}
	return AuthConfig{users: users, enabled: true}
}

// Enabled returns true if authentication is enabled.
func (c AuthConfig) Enabled() bool { return c.enabled }

// Lookup returns the user a key belongs to.
func (c AuthConfig) Lookup(key string) (string, bool) {
	for candidate, user := range c.users {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			return user, true
		}
	}
	return "", false
}

// Authenticate resolves the calling user from the X-API-KEY header and puts
// it in the request context. With auth disabled every caller is LocalUser.
func Authenticate(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.enabled {
				next.ServeHTTP(w, r.WithContext(log.WithUser(r.Context(), LocalUser)))
				return
			}

			user, ok := config.Lookup(r.Header.Get(APIKeyHeader))
			if !ok {
				WriteMessage(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(log.WithUser(r.Context(), user)))
		})
	}
}

// APIKeyAuth is a convenience function that creates auth middleware from a
// slice of key entries.
func APIKeyAuth(entries []string) func(http.Handler) http.Handler {
	return Authenticate(NewAuthConfigWithKeys(entries))
}

// UserFromContext returns the authenticated user, or LocalUser when the
// request did not pass through Authenticate.
func UserFromContext(ctx context.Context) string {
	if user := log.User(ctx); user != "" {
		return user
	}
	return LocalUser
}
