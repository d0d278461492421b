package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/littlelemon/api/internal/auth"
	"github.com/littlelemon/api/internal/authz"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityStore resolves a token's user into an identity with current
// role flags. Satisfied by *database.Queries. Roles are read from the
// database on every request so a promotion (or demotion) takes effect
// without re-login.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id int64) (database.User, error)
	ListGroupNamesForUser(ctx context.Context, userID int64) ([]string, error)
}

// Authenticate validates the bearer token and loads the caller's
// identity into the request context.
func Authenticate(jwtSecret string, store IdentityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			identity, err := ResolveIdentity(r.Context(), store, claims.UserID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
					return
				}
				log.Printf("ERROR: resolve identity: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveIdentity builds an authz.Identity from the stored user row and
// its group memberships.
func ResolveIdentity(ctx context.Context, store IdentityStore, userID int64) (authz.Identity, error) {
	user, err := store.GetUserByID(ctx, userID)
	if err != nil {
		return authz.Identity{}, err
	}
	groups, err := store.ListGroupNamesForUser(ctx, userID)
	if err != nil {
		return authz.Identity{}, err
	}

	identity := authz.Identity{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}
	for _, g := range groups {
		switch g {
		case enum.GroupManager:
			identity.IsManager = true
		case enum.GroupDeliveryCrew:
			identity.IsDeliveryCrew = true
		}
	}
	return identity, nil
}

// RequireStaff rejects callers without the staff flag.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		if !identity.IsStaff {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager rejects callers outside the Manager group.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		if !identity.IsManager {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a context carrying the caller identity. Exported
// for handler tests, which inject identities without running the full
// middleware chain.
func WithIdentity(ctx context.Context, identity authz.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (authz.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(authz.Identity)
	return identity, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
