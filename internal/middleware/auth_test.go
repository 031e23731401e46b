package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func protectedHandler(t *testing.T, a *Auth) http.Handler {
	t.Helper()
	return a.WithAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Fatalf("expected user id in context")
		}
		_, _ = w.Write([]byte(uid))
	})))
}

func TestAuthRoundTrip(t *testing.T) {
	a := NewAuth("test-secret")
	tok, err := a.SignToken("u1", "u1@example.com", time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/moods", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	protectedHandler(t, a).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuthRejects(t *testing.T) {
	a := NewAuth("test-secret")
	other := NewAuth("other-secret")
	foreign, _ := other.SignToken("u1", "u1@example.com", time.Hour)
	expired, _ := a.SignToken("u1", "u1@example.com", -time.Minute)
	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte("test-secret"))

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-token",
		"foreign": "Bearer " + foreign,
		"expired": "Bearer " + expired,
		"issuer":  "Bearer " + wrongIssuer,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/moods", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		protectedHandler(t, a).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}
