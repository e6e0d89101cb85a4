package authn

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a missing, malformed, expired or badly signed
// bearer token.
var ErrInvalidToken = errors.New("authn: invalid token")

type metadataClaim struct {
	Role string `json:"role"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email        string        `json:"email"`
	AppMetadata  metadataClaim `json:"app_metadata"`
	UserMetadata metadataClaim `json:"user_metadata"`
}

// TokenParser verifies provider-issued HS256 tokens with the shared secret.
type TokenParser struct {
	secret []byte
	now    func() time.Time
}

// NewTokenParser constructs a parser. now defaults to time.Now.
func NewTokenParser(secret string, now func() time.Time) *TokenParser {
	if now == nil {
		now = time.Now
	}
	return &TokenParser{secret: []byte(secret), now: now}
}

// Parse verifies the raw token and extracts the principal.
func (p *TokenParser) Parse(raw string) (*Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Principal{
		ID:       claims.Subject,
		Email:    claims.Email,
		AppRole:  strings.TrimSpace(claims.AppMetadata.Role),
		UserRole: strings.TrimSpace(claims.UserMetadata.Role),
	}, nil
}
