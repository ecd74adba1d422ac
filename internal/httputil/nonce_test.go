package httputil

import (
	"context"
	"testing"
)

func TestGenerateNonce(t *testing.T) {
	seen := make(map[string]bool)
	for range 5 {
		nonce := GenerateNonce()
		if len(nonce) != 22 {
			t.Fatalf("expected 22-character nonce, got %d: %q", len(nonce), nonce)
		}
		if seen[nonce] {
			t.Fatalf("nonce %q generated twice", nonce)
		}
		seen[nonce] = true
	}
}

func TestNonceContextRoundTrip(t *testing.T) {
	if got := NonceFromContext(context.Background()); got != "" {
		t.Errorf("expected empty nonce without a value, got %q", got)
	}
	ctx := ContextWithNonce(context.Background(), "player-nonce")
	if got := NonceFromContext(ctx); got != "player-nonce" {
		t.Errorf("expected %q, got %q", "player-nonce", got)
	}
}

func TestNonceSource(t *testing.T) {
	tests := []struct {
		nonce string
		want  string
	}{
		{"abc123", " 'nonce-abc123'"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NonceSource(tt.nonce); got != tt.want {
			t.Errorf("NonceSource(%q) = %q, want %q", tt.nonce, got, tt.want)
		}
	}
}
