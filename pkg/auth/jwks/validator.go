package jwks

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/osvaldoandrade/sqldojo/pkg/auth"
)

const keyCacheTTL = 5 * time.Minute

// Validator validates RS256 JWTs against keys published at a JWKS endpoint.
type Validator struct {
	jwksURL  string
	issuer   string
	audience string
	parser   *jwt.Parser
	client   *http.Client

	mu        sync.Mutex
	keyCache  map[string]*rsa.PublicKey
	cacheTime time.Time
}

// NewValidator creates a new JWKS validator
func NewValidator(cfg auth.Config) (auth.Validator, error) {
	if cfg.JwksURL == "" {
		return nil, errors.New("jwksURL is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 5 * time.Second
	}

	return &Validator{
		jwksURL:  cfg.JwksURL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithLeeway(cfg.ClockSkew),
			jwt.WithExpirationRequired(),
		),
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		keyCache: make(map[string]*rsa.PublicKey),
	}, nil
}

type providerConfig struct {
	JwksURL          string `json:"jwksUrl"`
	Issuer           string `json:"issuer"`
	Audience         string `json:"audience"`
	ClockSkewSeconds int    `json:"clockSkewSeconds"`
	TimeoutSeconds   int    `json:"timeoutSeconds"`
}

// NewValidatorFromJSON builds a validator from the provider config block.
func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	var cfg providerConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("jwks auth: invalid config: %w", err)
	}
	if cfg.ClockSkewSeconds <= 0 {
		cfg.ClockSkewSeconds = 60
	}
	return NewValidator(auth.Config{
		JwksURL:     strings.TrimSpace(cfg.JwksURL),
		Issuer:      strings.TrimSpace(cfg.Issuer),
		Audience:    strings.TrimSpace(cfg.Audience),
		ClockSkew:   time.Duration(cfg.ClockSkewSeconds) * time.Second,
		HTTPTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}

func init() {
	auth.RegisterProvider("jwks", NewValidatorFromJSON)
}

// Validate validates a JWT token
func (v *Validator) Validate(tokenString string) (*auth.Claims, error) {
	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("missing kid in token header")
		}
		return v.getPublicKey(kid)
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	aud, _ := claims.GetAudience()
	result := &auth.Claims{
		Subject:  getStringClaim(claims, "sub"),
		Email:    getStringClaim(claims, "email"),
		Issuer:   getStringClaim(claims, "iss"),
		Audience: aud,
		Role:     strings.ToUpper(strings.TrimSpace(getStringClaim(claims, "role"))),
		Raw:      claims,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	if scope := getStringClaim(claims, "scope"); scope != "" {
		result.Scopes = strings.Fields(scope)
	}
	return result, nil
}

func (v *Validator) getPublicKey(kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keyCache[kid]; ok && time.Since(v.cacheTime) < keyCacheTTL {
		return key, nil
	}

	keys, err := v.fetch()
	if err != nil {
		// Serve a stale key rather than failing every request during a JWKS outage.
		if key, ok := v.keyCache[kid]; ok {
			return key, nil
		}
		return nil, err
	}
	v.keyCache = keys
	v.cacheTime = time.Now()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	return key, nil
}

func (v *Validator) fetch() (map[string]*rsa.PublicKey, error) {
	resp, err := v.client.Get(v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kid == "" || !strings.EqualFold(k.Kty, "RSA") {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode n: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode e: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || e.Sign() <= 0 {
		return nil, errors.New("invalid rsa key")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
