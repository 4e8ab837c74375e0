package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims TokenClaims) string {
	t.Helper()
	token, err := SignJWT(testSecret, claims)
	if err != nil {
		t.Fatalf("SignJWT returned error: %v", err)
	}
	return token
}

func TestVerifyJWTRoundTrip(t *testing.T) {
	token := signedToken(t, TokenClaims{Sub: "u1", Tier: "free", Exp: time.Now().Add(time.Hour).Unix()})

	claims, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyJWT returned error: %v", err)
	}
	if claims.Sub != "u1" || claims.Tier != "free" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyJWTRejects(t *testing.T) {
	valid := signedToken(t, TokenClaims{Sub: "u1", Exp: time.Now().Add(time.Hour).Unix()})
	expired := signedToken(t, TokenClaims{Sub: "u1", Exp: time.Now().Add(-time.Hour).Unix()})

	cases := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong_secret", secret: "other-secret", token: valid},
		{name: "expired", secret: testSecret, token: expired},
		{name: "malformed", secret: testSecret, token: "not.a.token.at.all"},
		{name: "empty", secret: testSecret, token: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyJWT(tc.secret, tc.token); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAuthJWTMiddleware(t *testing.T) {
	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthJWT(testSecret)(next)

	t.Run("valid_token", func(t *testing.T) {
		gotUserID = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, TokenClaims{Sub: "u1", Exp: time.Now().Add(time.Hour).Unix()}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if gotUserID != "u1" {
			t.Fatalf("user id = %q, want u1", gotUserID)
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("bad_scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("tampered_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, TokenClaims{Sub: "u1"})+"x")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}
