package identity

import (
	"errors"
	"time"

	"plantar/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints user tokens the Resolver accepts. Used by plantarctl and tests; production
// tokens come from the identity provider.
type Signer struct {
	secret []byte
	Issuer string
	now    func() time.Time
}

func NewSigner(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	return &Signer{secret: []byte(secret), Issuer: issuer, now: time.Now}, nil
}

// Sign issues an HS256 token for the caller with the given TTL.
func (s *Signer) Sign(c domain.Caller, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  c.UserID.String(),
		"role": string(c.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if s.Issuer != "" {
		claims["iss"] = s.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
