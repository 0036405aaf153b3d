package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// AUTHENTICATION - Bearer JWT issued by the identity provider (or `token`)
// =============================================================================

// Claims are the JWT claims the API understands.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Identity is the authenticated caller.
type Identity struct {
	UserID generic.UserID
	Role   generic.Role
}

// Auth signs and verifies HS256 access tokens.
type Auth struct {
	secret []byte
	issuer string
	expiry time.Duration
}

func NewAuth(secret, issuer string, expiry time.Duration) *Auth {
	return &Auth{secret: []byte(secret), issuer: issuer, expiry: expiry}
}

// Issue signs a token for the given user.
func (a *Auth) Issue(user generic.UserID, role generic.Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.expiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   string(user),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID: string(user),
		Role:   string(role),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses and validates a token string.
func (a *Auth) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(a.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}

	if claims.UserID == "" {
		return Identity{}, errors.New("token has no user_id")
	}
	role := generic.Role(claims.Role)
	if role == "" {
		role = generic.RoleEmployee
	}
	if !role.Valid() {
		return Identity{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return Identity{UserID: generic.UserID(claims.UserID), Role: role}, nil
}

// Middleware rejects requests without a valid bearer token and puts the
// caller's Identity on the request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Missing or malformed Authorization header", nil)
			return
		}

		id, err := a.Verify(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", err)
			return
		}

		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", string(id.UserID))
		})
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin lets only admin and super_admin callers through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.Role.IsAdmin() {
			writeDomainError(w, r, fmt.Errorf("%w: admin role required", generic.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
