package httputil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
)

type contextKey string

const nonceKey contextKey = "csp-nonce"

// nonceBytes yields a 22 character unpadded base64url nonce.
const nonceBytes = 16

// GenerateNonce returns a fresh per-response CSP nonce, or "" if the system
// random source fails.
func GenerateNonce() string {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		slog.Error("httputil: generate CSP nonce failed", "error", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func ContextWithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey, nonce)
}

func NonceFromContext(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceKey).(string)
	return nonce
}

// NonceSource renders nonce as a CSP source expression with a leading space,
// ready to append to a source list. An empty nonce adds no source.
func NonceSource(nonce string) string {
	if nonce == "" {
		return ""
	}
	return " 'nonce-" + nonce + "'"
}
