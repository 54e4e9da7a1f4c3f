package jwks

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/osvaldoandrade/sqldojo/pkg/auth"
)

type fixture struct {
	key     *rsa.PrivateKey
	server  *httptest.Server
	fetches atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	f := &fixture{key: privKey}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		n := base64.RawURLEncoding.EncodeToString(privKey.PublicKey.N.Bytes())
		e := base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{"kty": "RSA", "kid": "test-key-1", "n": n, "e": e}},
		})
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) validator(t *testing.T, skew time.Duration) auth.Validator {
	t.Helper()
	v, err := NewValidator(auth.Config{
		JwksURL:     f.server.URL,
		Issuer:      "test-issuer",
		Audience:    "sqldojo",
		ClockSkew:   skew,
		HTTPTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}
	return v
}

func (f *fixture) sign(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestJWKSValidator(t *testing.T) {
	f := newFixture(t)
	v := f.validator(t, 60*time.Second)

	now := time.Now().Unix()
	token := f.sign(t, "test-key-1", jwt.MapClaims{
		"iss":   "test-issuer",
		"aud":   "sqldojo",
		"sub":   "learner-7",
		"exp":   now + 3600,
		"iat":   now,
		"email": "ada@example.com",
		"scope": "dojo:check dojo:hint",
		"role":  "admin",
	})

	claims, err := v.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.Subject != "learner-7" || claims.Email != "ada@example.com" || claims.Issuer != "test-issuer" {
		t.Errorf("unexpected identity claims: %+v", claims)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "sqldojo" {
		t.Errorf("expected audience ['sqldojo'], got %v", claims.Audience)
	}
	if !claims.HasScope("dojo:hint") {
		t.Errorf("expected scopes parsed, got %v", claims.Scopes)
	}
	if claims.Role != "ADMIN" {
		t.Errorf("expected role ADMIN, got %q", claims.Role)
	}
	if claims.ExpiresAt.Unix() != now+3600 {
		t.Errorf("unexpected expiry %v", claims.ExpiresAt)
	}

	if _, err := v.Validate(token); err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if got := f.fetches.Load(); got != 1 {
		t.Errorf("expected JWKS to be cached, fetched %d times", got)
	}
}

func TestJWKSValidatorRejects(t *testing.T) {
	f := newFixture(t)
	v := f.validator(t, time.Second)
	now := time.Now().Unix()

	tests := []struct {
		name   string
		kid    string
		claims jwt.MapClaims
	}{
		{"wrong issuer", "test-key-1", jwt.MapClaims{"iss": "wrong", "aud": "sqldojo", "exp": now + 3600}},
		{"wrong audience", "test-key-1", jwt.MapClaims{"iss": "test-issuer", "aud": "other", "exp": now + 3600}},
		{"expired", "test-key-1", jwt.MapClaims{"iss": "test-issuer", "aud": "sqldojo", "exp": now - 3600}},
		{"missing exp", "test-key-1", jwt.MapClaims{"iss": "test-issuer", "aud": "sqldojo"}},
		{"unknown kid", "other-key", jwt.MapClaims{"iss": "test-issuer", "aud": "sqldojo", "exp": now + 3600}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Validate(f.sign(t, tt.kid, tt.claims)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if _, err := v.Validate("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestNewValidatorFromJSON(t *testing.T) {
	f := newFixture(t)
	raw, _ := json.Marshal(map[string]any{"jwksUrl": f.server.URL, "issuer": "test-issuer", "audience": "sqldojo"})

	v, err := auth.NewValidator(auth.ProviderConfig{Type: "jwks", Config: map[string]any{
		"jwksUrl": f.server.URL, "issuer": "test-issuer", "audience": "sqldojo",
	}})
	if err != nil {
		t.Fatalf("registry validator: %v", err)
	}
	token := f.sign(t, "test-key-1", jwt.MapClaims{"iss": "test-issuer", "aud": "sqldojo", "exp": time.Now().Unix() + 60})
	if _, err := v.Validate(token); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if _, err := NewValidatorFromJSON(raw); err != nil {
		t.Fatalf("NewValidatorFromJSON: %v", err)
	}
	if _, err := NewValidatorFromJSON(json.RawMessage(`{"issuer":"x","audience":"y"}`)); err == nil {
		t.Fatal("expected error without jwksUrl")
	}
}
