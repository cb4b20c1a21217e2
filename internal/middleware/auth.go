package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
)

type contextKey string

const identityKey contextKey = "identity"

// Claims carried by a session token.
type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller: a session and the role it acts as.
type Identity struct {
	SessionID string
	Role      roles.Role
}

// RoleLookup resolves role names carried in tokens.
type RoleLookup interface {
	Get(name string) (roles.Role, error)
}

// IssueToken signs a session token for role valid for ttl.
func IssueToken(secret []byte, sessionID, role string, ttl time.Duration, now time.Time) (string, error) {
	if sessionID == "" || role == "" {
		return "", errors.New("session id and role are required")
	}
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	claims := Claims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// JWTAuth validates the bearer token and attaches the caller's Identity to the
// request context. Tokens naming a role missing from the table are rejected.
func JWTAuth(secret []byte, table RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if ValidateSessionID(claims.SessionID) != nil {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			role, err := table.Get(claims.Role)
			if err != nil {
				writeError(w, http.StatusForbidden, "unknown role")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{SessionID: claims.SessionID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by JWTAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequirePermission rejects callers whose role lacks perm.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if !id.Role.HasPermission(perm) {
				writeError(w, http.StatusForbidden, "permission denied: "+perm)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
