package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"habit-rooms-go/internal/config"
	userdomain "habit-rooms-go/internal/domain/user"
)

type recordingProfiles struct {
	identities []userdomain.Identity
}

func (p *recordingProfiles) EnsureProfile(ctx context.Context, identity userdomain.Identity) (*userdomain.Profile, error) {
	p.identities = append(p.identities, identity)
	return &userdomain.Profile{UserID: identity.UserID}, nil
}

func signToken(t *testing.T, secret string, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": user.ID, "email": user.Email, "name": user.Name})
	})
}

func serve(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLocalTokenVerification(t *testing.T) {
	profiles := &recordingProfiles{}
	auth := NewSupabaseAuth(config.SupabaseConfig{JWTSecret: "test-secret"}, profiles, nil)
	handler := auth.Middleware(echoUser())

	claims := supabaseClaims{
		Email:        "ada@example.com",
		UserMetadata: map[string]interface{}{"display_name": "Ada"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-a",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	rec := serve(handler, signToken(t, "test-secret", claims, jwt.SigningMethodHS256))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "user-a" || body["name"] != "Ada" {
		t.Fatalf("unexpected user %v", body)
	}
	if len(profiles.identities) != 1 || profiles.identities[0].Email != "ada@example.com" {
		t.Fatalf("expected profile ensured, got %+v", profiles.identities)
	}
}

func TestLocalTokenRejections(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{JWTSecret: "test-secret"}, nil, nil)
	handler := auth.Middleware(echoUser())
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "wrong secret", token: signToken(t, "other", jwt.RegisteredClaims{Subject: "user-a", ExpiresAt: future}, jwt.SigningMethodHS256)},
		{name: "expired", token: signToken(t, "test-secret", jwt.RegisteredClaims{Subject: "user-a", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}, jwt.SigningMethodHS256)},
		{name: "no expiry", token: signToken(t, "test-secret", jwt.RegisteredClaims{Subject: "user-a"}, jwt.SigningMethodHS256)},
		{name: "no subject", token: signToken(t, "test-secret", jwt.RegisteredClaims{ExpiresAt: future}, jwt.SigningMethodHS256)},
		{name: "garbage", token: "not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(handler, tc.token)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRemoteTokenVerification(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "user-b",
			"email":         "grace@example.com",
			"user_metadata": map[string]interface{}{"full_name": "Grace Hopper"},
		})
	}))
	defer provider.Close()

	auth := NewSupabaseAuth(config.SupabaseConfig{URL: provider.URL + "/", PublishableKey: "anon-key"}, nil, nil)
	handler := auth.Middleware(echoUser())

	rec := serve(handler, "good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["id"] != "user-b" || body["name"] != "Grace Hopper" {
		t.Fatalf("unexpected user %v", body)
	}

	if rec := serve(handler, "bad-token"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for rejected token, got %d", rec.Code)
	}
}

func TestSkipAuthUsesMockUser(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{SkipAuth: true, MockUserID: "mock-user", MockUserName: "Mock"}, nil, nil)
	rec := serve(auth.Middleware(echoUser()), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	auth = NewSupabaseAuth(config.SupabaseConfig{SkipAuth: true}, nil, nil)
	if rec := serve(auth.Middleware(echoUser()), ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without mock id, got %d", rec.Code)
	}
}

func TestAuthNotConfigured(t *testing.T) {
	auth := NewSupabaseAuth(config.SupabaseConfig{}, nil, nil)
	if rec := serve(auth.Middleware(echoUser()), "token"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestTokenExpiry(t *testing.T) {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signToken(t, "any", jwt.RegisteredClaims{Subject: "user-a", ExpiresAt: jwt.NewNumericDate(expiry)}, jwt.SigningMethodHS256)
	if got := tokenExpiry(token); !got.Equal(expiry) {
		t.Fatalf("expected %v, got %v", expiry, got)
	}
	if got := tokenExpiry("opaque"); !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := NewCORS([]string{"http://localhost:5173", " "})(echoUser())

	req := httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow header, got %q", got)
	}
}
