package authn

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndValidateSession(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.IssueSession(42, "0xabc")
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if token.TokenType != "Bearer" {
		t.Errorf("TokenType = %s, want Bearer", token.TokenType)
	}

	claims, err := m.ValidateSession(token.Token)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.WalletAddress != "0xabc" {
		t.Errorf("WalletAddress = %s, want 0xabc", claims.WalletAddress)
	}
	if claims.Issuer != "bidcoin" {
		t.Errorf("Issuer = %s, want bidcoin", claims.Issuer)
	}
}

func TestValidateSessionWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a").IssueSession(1, "0x1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewManager("secret-b").ValidateSession(token.Token)
	if err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateSessionGarbage(t *testing.T) {
	m := NewManager("test-secret")
	if _, err := m.ValidateSession("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateSessionExpired(t *testing.T) {
	m := NewManager("test-secret")

	now := time.Now().UTC()
	claims := &SessionClaims{
		UserID:        1,
		WalletAddress: "0x1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			Issuer:    "bidcoin",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.ValidateSession(signed); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateSessionWrongIssuer(t *testing.T) {
	m := NewManager("test-secret")

	now := time.Now().UTC()
	claims := &SessionClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "someone-else",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.ValidateSession(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
