package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumadb/graphql-engine/internal/metadata"
)

func signToken(t *testing.T, secret []byte, c claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return s
}

func TestFromBearerTokenExtractsRoleAndVariables(t *testing.T) {
	secret := []byte("test-secret")
	tokenString := signToken(t, secret, claims{
		Role:      "customer",
		Variables: map[string]string{"x-hasura-user-id": "42"},
	})

	sess, err := FromBearerToken(tokenString, secret)
	if err != nil {
		t.Fatalf("FromBearerToken: %v", err)
	}
	if sess.Role != metadata.Role("customer") {
		t.Fatalf("got role %q, want customer", sess.Role)
	}
	v, ok := sess.Variable(metadata.SessionVariable("x-hasura-user-id"))
	if !ok || v != "42" {
		t.Fatalf("got variable %q (ok=%v), want 42", v, ok)
	}
}

func TestFromBearerTokenRejectsWrongSecret(t *testing.T) {
	tokenString := signToken(t, []byte("right-secret"), claims{Role: "customer"})

	_, err := FromBearerToken(tokenString, []byte("wrong-secret"))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestFromBearerTokenRejectsExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	tokenString := signToken(t, secret, claims{
		Role: "customer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := FromBearerToken(tokenString, secret)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("got %v, want ErrExpiredToken", err)
	}
}
