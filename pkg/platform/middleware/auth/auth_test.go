package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"watchlist/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
	got    string
}

func (v *stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	v.got = token
	return v.claims, v.err
}

func serve(validator JWTValidator, header string) (*httptest.ResponseRecorder, string) {
	var seenUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/screening-logs", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	RequireAuth(validator, logger)(next).ServeHTTP(w, req)
	return w, seenUser
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token sets user", func(t *testing.T) {
		v := &stubValidator{claims: &JWTClaims{UserID: "analyst-1", JTI: "t1"}}
		w, user := serve(v, "Bearer abc.def")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "analyst-1", user)
		assert.Equal(t, "abc.def", v.got)
	})

	t.Run("missing header", func(t *testing.T) {
		w, user := serve(&stubValidator{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "unauthorized")
		assert.Empty(t, user)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w, _ := serve(&stubValidator{}, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w, _ := serve(&stubValidator{err: errors.New("bad signature")}, "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})

	t.Run("token without user", func(t *testing.T) {
		w, _ := serve(&stubValidator{claims: &JWTClaims{JTI: "t2"}}, "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
