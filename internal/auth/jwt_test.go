package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateSessionToken_RoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("test-secret", "session-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.SessionID != "session-123" {
		t.Errorf("expected session %q, got %q", "session-123", claims.SessionID)
	}
	if claims.TokenType != "session" {
		t.Errorf("expected token type %q, got %q", "session", claims.TokenType)
	}
}

func TestGenerateSessionToken_ExpiresAfterDuration(t *testing.T) {
	token, _ := GenerateSessionToken("test-secret", "session-123")
	claims, err := ValidateToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := time.Now().Add(SessionTokenDuration)
	diff := claims.ExpiresAt.Time.Sub(expected)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("expected expiry near %v, got %v", expected, claims.ExpiresAt.Time)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _ := GenerateSessionToken("secret-a", "session-123")

	if _, err := ValidateToken("secret-b", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	token, _ := generateToken("test-secret", "session-123", tokenTypeSession, -time.Minute)

	if _, err := ValidateToken("test-secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "session-123", TokenType: "session"})
	tokenStr, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := ValidateToken("test-secret", tokenStr); err == nil {
		t.Fatal("expected error for unsigned token")
	}
}

func TestValidateToken_RequiresSession(t *testing.T) {
	token, _ := generateToken("test-secret", "", tokenTypeSession, time.Minute)

	if _, err := ValidateToken("test-secret", token); err == nil {
		t.Fatal("expected error for token without a session")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken("test-secret", "not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
