package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.GenerateToken("+5511987654321")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Phone != "+5511987654321" {
		t.Errorf("phone: got %q", claims.Phone)
	}
}

func TestJWTManagerRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)
	expired := NewJWTManager("secret", -time.Minute)

	foreign, _ := other.GenerateToken("+551100000000")
	stale, _ := expired.GenerateToken("+551100000000")

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
