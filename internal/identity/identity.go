// Package identity resolves callers from bearer credentials: user JWTs issued by the
// external identity provider, and shared device secrets.
package identity

import (
	"context"
	"fmt"
	"strings"

	"plantar/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Resolver validates HS256 user tokens. The subject must be a user id; the optional
// role claim defaults to patient.
type Resolver struct {
	secret []byte
	issuer string
}

func NewResolver(secret, issuer string) *Resolver {
	return &Resolver{secret: []byte(secret), issuer: issuer}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (domain.Caller, error) {
	if len(r.secret) == 0 {
		return domain.Caller{}, fmt.Errorf("%w: user tokens are not configured", domain.ErrUnauthenticated)
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %T", t.Method)
		}
		return r.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return domain.Caller{}, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Caller{}, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthenticated)
	}
	sub, _ := claims["sub"].(string)
	uid, err := uuid.Parse(sub)
	if err != nil || uid == uuid.Nil {
		return domain.Caller{}, fmt.Errorf("%w: subject is not a user id", domain.ErrUnauthenticated)
	}
	role, err := parseRole(claims["role"])
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{UserID: uid, Role: role}, nil
}

func parseRole(v any) (domain.Role, error) {
	s, _ := v.(string)
	switch role := domain.Role(strings.ToLower(strings.TrimSpace(s))); role {
	case "":
		return domain.RolePatient, nil
	case domain.RolePatient, domain.RoleClinician, domain.RoleAdmin:
		return role, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", domain.ErrUnauthenticated, s)
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

type callerKey struct{}

func WithCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(domain.Caller)
	return c, ok
}
