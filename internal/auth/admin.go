package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/prahasith1996/video-player/internal/httputil"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminKeyHeader    = "X-Admin-Key"
	adminKeyPrefix    = "hk_"
	adminKeyRandBytes = 32
)

// GenerateAdminKey returns a new random admin key and its bcrypt hash. Only
// the hash is configured on the server.
func GenerateAdminKey() (key string, hash string, err error) {
	b := make([]byte, adminKeyRandBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate random bytes: %w", err)
	}
	key = adminKeyPrefix + hex.EncodeToString(b)
	hash, err = HashAdminKey(key)
	if err != nil {
		return "", "", err
	}
	return key, hash, nil
}

func HashAdminKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin key: %w", err)
	}
	return string(hashed), nil
}

// AdminAuth protects document management routes.
type AdminAuth struct {
	hash []byte
}

// NewAdminAuth accepts the bcrypt hash of the admin key. An empty hash
// disables the protected routes.
func NewAdminAuth(hash string) *AdminAuth {
	return &AdminAuth{hash: []byte(hash)}
}

func (a *AdminAuth) Enabled() bool {
	return len(a.hash) > 0
}

func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			httputil.WriteError(w, http.StatusServiceUnavailable, "admin endpoints are disabled")
			return
		}

		key := r.Header.Get(AdminKeyHeader)
		if key == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "admin key required")
			return
		}

		if err := bcrypt.CompareHashAndPassword(a.hash, []byte(key)); err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid admin key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
