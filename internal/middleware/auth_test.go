package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/osvaldoandrade/sqldojo/pkg/auth"
	_ "github.com/osvaldoandrade/sqldojo/pkg/auth/jwks" // Register JWKS provider
	_ "github.com/osvaldoandrade/sqldojo/pkg/auth/static"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	jwksSrv *httptest.Server
	privKey *rsa.PrivateKey
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key gen: %v", err)
	}
	jwksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := base64.RawURLEncoding.EncodeToString(privKey.PublicKey.N.Bytes())
		e := base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{"kty": "RSA", "kid": "kid-1", "n": n, "e": e}},
		})
	}))
	t.Cleanup(jwksSrv.Close)
	return &testEnv{jwksSrv: jwksSrv, privKey: privKey}
}

func (e *testEnv) validator(t *testing.T) auth.Validator {
	t.Helper()
	v, err := auth.NewValidator(auth.ProviderConfig{Type: "jwks", Config: map[string]any{
		"jwksUrl":  e.jwksSrv.URL,
		"issuer":   "sqldojo-test",
		"audience": "sqldojo",
	}})
	if err != nil {
		t.Fatalf("validator init: %v", err)
	}
	return v
}

func (e *testEnv) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "kid-1"
	s, err := tok.SignedString(e.privKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func staticValidator(t *testing.T) auth.Validator {
	t.Helper()
	v, err := auth.NewValidator(auth.ProviderConfig{Type: "static", Config: map[string]any{
		"learners": []any{
			map[string]any{"token": "learner-token", "subject": "ada"},
			map[string]any{"token": "instructor-token", "subject": "grace", "role": "admin"},
		},
	}})
	if err != nil {
		t.Fatalf("validator init: %v", err)
	}
	return v
}

func runMiddleware(h gin.HandlerFunc, header map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		ctx.Request.Header.Set(k, v)
	}
	h(ctx)
	return ctx, rec
}

func TestAuthJWKSLearner(t *testing.T) {
	env := setupEnv(t)
	now := time.Now().Unix()
	tok := env.sign(t, jwt.MapClaims{
		"iss":   "sqldojo-test",
		"aud":   "sqldojo",
		"sub":   "u1",
		"exp":   now + 3600,
		"iat":   now - 10,
		"email": "ada@example.com",
	})

	ctx, rec := runMiddleware(AuthMiddleware(env.validator(t), AuthOptions{Required: true}), map[string]string{"Authorization": "Bearer " + tok})
	if ctx.IsAborted() {
		t.Fatalf("expected learner auth to pass, got %d", rec.Code)
	}
	if Learner(ctx) != "ada@example.com" {
		t.Fatalf("expected learner in context, got %q", Learner(ctx))
	}
	if ctx.GetString("userRole") != RoleLearner {
		t.Fatalf("expected default role, got %q", ctx.GetString("userRole"))
	}
}

func TestAuthJWKSInvalidAudience(t *testing.T) {
	env := setupEnv(t)
	now := time.Now().Unix()
	tok := env.sign(t, jwt.MapClaims{"iss": "sqldojo-test", "aud": "wrong", "sub": "u1", "exp": now + 3600})

	if _, err := validateBearer(env.validator(t), "Bearer "+tok); err == nil {
		t.Fatalf("expected error for invalid audience")
	}
	ctx, rec := runMiddleware(AuthMiddleware(env.validator(t), AuthOptions{}), map[string]string{"Authorization": "Bearer " + tok})
	if !ctx.IsAborted() || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthOptionalAllowsAnonymous(t *testing.T) {
	ctx, _ := runMiddleware(AuthMiddleware(staticValidator(t), AuthOptions{}), nil)
	if ctx.IsAborted() {
		t.Fatal("anonymous request should pass when auth is optional")
	}
	if Learner(ctx) != "" {
		t.Fatalf("expected anonymous learner, got %q", Learner(ctx))
	}
}

func TestAuthRequiredRejectsAnonymous(t *testing.T) {
	ctx, rec := runMiddleware(AuthMiddleware(staticValidator(t), AuthOptions{Required: true}), nil)
	if !ctx.IsAborted() || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthNilValidatorIsAnonymous(t *testing.T) {
	ctx, _ := runMiddleware(AuthMiddleware(nil, AuthOptions{Required: true}), map[string]string{"Authorization": "Bearer whatever"})
	if ctx.IsAborted() {
		t.Fatal("nil validator should not reject")
	}
}

func TestAuthMalformedHeader(t *testing.T) {
	ctx, rec := runMiddleware(AuthMiddleware(staticValidator(t), AuthOptions{}), map[string]string{"Authorization": "Basic abc"})
	if !ctx.IsAborted() || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRoleFromClaims(t *testing.T) {
	ctx, _ := runMiddleware(AuthMiddleware(staticValidator(t), AuthOptions{}), map[string]string{"Authorization": "Bearer instructor-token"})
	if ctx.GetString("userRole") != RoleAdmin {
		t.Fatalf("expected ADMIN role from claims, got %q", ctx.GetString("userRole"))
	}
}

func TestAuthDevRoleHeader(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer learner-token", "X-Role": "admin"}

	ctx, _ := runMiddleware(AuthMiddleware(staticValidator(t), AuthOptions{DevRoleHeader: true}), headers)
	if ctx.GetString("userRole") != RoleAdmin {
		t.Fatalf("expected X-Role to apply in dev, got %q", ctx.GetString("userRole"))
	}
	ctx, _ = runMiddleware(AuthMiddleware(staticValidator(t), AuthOptions{}), headers)
	if ctx.GetString("userRole") != RoleLearner {
		t.Fatalf("expected X-Role to be ignored, got %q", ctx.GetString("userRole"))
	}
}

func TestAdminTokenAndRequireAdmin(t *testing.T) {
	chain := func(c *gin.Context) {
		AdminTokenMiddleware("super-secret-admin-token")(c)
		if !c.IsAborted() {
			RequireAdmin()(c)
		}
	}

	ctx, _ := runMiddleware(chain, map[string]string{"X-Admin-Token": "super-secret-admin-token"})
	if ctx.IsAborted() {
		t.Fatal("admin token should grant access")
	}

	ctx, rec := runMiddleware(chain, map[string]string{"X-Admin-Token": "guess"})
	if !ctx.IsAborted() || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong admin token, got %d", rec.Code)
	}

	ctx, _ = runMiddleware(func(c *gin.Context) {
		AdminTokenMiddleware("")(c)
		RequireAdmin()(c)
	}, map[string]string{"X-Admin-Token": ""})
	if !ctx.IsAborted() {
		t.Fatal("empty admin token must not grant access")
	}
}

func TestAdminTokenSkipsRequiredLearnerAuth(t *testing.T) {
	ctx, _ := runMiddleware(func(c *gin.Context) {
		AdminTokenMiddleware("super-secret-admin-token")(c)
		AuthMiddleware(staticValidator(t), AuthOptions{Required: true})(c)
	}, map[string]string{"X-Admin-Token": "super-secret-admin-token"})
	if ctx.IsAborted() {
		t.Fatal("admin requests should not need a learner token")
	}
}
