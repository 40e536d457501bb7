package handlers

import (
	"crypto/sha256"
	"net/http"
	"strings"

	"photo-library/internal/library"
	"photo-library/internal/logging"

	"golang.org/x/crypto/bcrypt"
)

// tokenQueryParam carries the access token for clients that cannot set
// headers, such as image elements.
const tokenQueryParam = "access_token"

// publicPaths are served without a token.
var publicPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// TokenAuth rejects requests that do not carry the configured access token.
// It passes everything through when no token hash is configured.
func (h *Handlers) TokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.tokenHash) == 0 || publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := requestToken(r)
		if token == "" || !h.verifyToken(token) {
			logging.Debug("Rejected %s %s: missing or invalid access token", r.Method, r.URL.Path)
			writeJSONError(w, library.ErrPermissionDenied.Error(), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get(tokenQueryParam)
}

// verifyToken compares token against the bcrypt hash. Accepted tokens are
// remembered by digest so bcrypt runs once per token, not once per request.
func (h *Handlers) verifyToken(token string) bool {
	digest := sha256.Sum256([]byte(token))
	if _, ok := h.verified.Load(digest); ok {
		return true
	}

	if err := bcrypt.CompareHashAndPassword(h.tokenHash, []byte(token)); err != nil {
		return false
	}
	h.verified.Store(digest, struct{}{})
	return true
}
