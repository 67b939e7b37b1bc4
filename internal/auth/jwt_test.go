package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/narrations", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestJWTAuthenticate(t *testing.T) {
	mw := NewJWTMiddleware(testSecret)

	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.Authenticate(next)

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, Claims{
			Sub:   "user-1",
			Email: "reader@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotClaims == nil || gotClaims.Email != "reader@example.com" {
			t.Errorf("claims = %+v", gotClaims)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(""))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", Claims{Sub: "user-1"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, Claims{
			Sub: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestHashAPIKeyStable(t *testing.T) {
	a := HashAPIKey("pdn_123")
	b := HashAPIKey("pdn_123")
	if a != b {
		t.Error("hash not deterministic")
	}
	if a == HashAPIKey("pdn_124") {
		t.Error("distinct keys collide")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
