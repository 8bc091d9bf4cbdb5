package upstream

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "sma-adp-console"
	tokenAudience = "sma-adp-api"
	tokenRole     = "service"
)

// serviceClaims identify the console to the school API.
type serviceClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenSource mints short-lived HS256 bearer tokens and reuses each one until
// it is close to expiry.
type TokenSource struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	current string
	expires time.Time
}

// NewTokenSource returns nil when secret is empty, meaning calls go out unauthenticated.
func NewTokenSource(secret, subject string, ttl time.Duration) *TokenSource {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if subject == "" {
		subject = tokenIssuer
	}
	return &TokenSource{secret: []byte(secret), subject: subject, ttl: ttl, now: time.Now}
}

// Token returns a valid signed token.
func (s *TokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.current != "" && now.Add(s.ttl/5).Before(s.expires) {
		return s.current, nil
	}

	expires := now.Add(s.ttl)
	claims := serviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   s.subject,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: tokenRole,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	s.current = signed
	s.expires = expires
	return signed, nil
}
