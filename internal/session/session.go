// Package session implements the Session{role, variables} contract of §6.
// Producing a Session from a request is an authentication-layer concern
// declared out of scope for THE CORE; this package is the reference
// JWT-based extractor, grounded on pkg/platform/auth/engine.go's Claims
// pattern.
package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumadb/graphql-engine/internal/metadata"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("expired session token")
)

// Session carries the caller's role and session variables, borrowed
// read-only through IR generation and permission folding (§3 Lifecycle).
type Session struct {
	Role      metadata.Role
	Variables map[metadata.SessionVariable]string
}

func (s Session) Variable(name metadata.SessionVariable) (string, bool) {
	v, ok := s.Variables[name]
	return v, ok
}

// claims is the JWT payload shape: a role plus an open bag of
// "x-hasura-*"-style session variables.
type claims struct {
	Role      string            `json:"role"`
	Variables map[string]string `json:"session_variables"`
	jwt.RegisteredClaims
}

// FromBearerToken validates tokenString against secret and extracts a
// Session from its claims.
func FromBearerToken(tokenString string, secret []byte) (Session, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpiredToken
		}
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Session{}, ErrInvalidToken
	}

	vars := make(map[metadata.SessionVariable]string, len(c.Variables))
	for k, v := range c.Variables {
		vars[metadata.SessionVariable(k)] = v
	}
	return Session{Role: metadata.Role(c.Role), Variables: vars}, nil
}
