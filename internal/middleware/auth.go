package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/sqldojo/pkg/auth"

	"github.com/gin-gonic/gin"
)

const (
	RoleAdmin   = "ADMIN"
	RoleLearner = "LEARNER"

	adminTokenHeader = "X-Admin-Token"
)

type AuthOptions struct {
	// Required rejects requests without a bearer token.
	Required bool
	// DevRoleHeader lets X-Role pick the role when the token has none.
	DevRoleHeader bool
}

// AuthMiddleware validates an optional learner bearer token. With a nil
// validator every request is anonymous.
func AuthMiddleware(validator auth.Validator, opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if validator == nil || strings.TrimSpace(header) == "" {
			if validator != nil && opts.Required && !isAdmin(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
				return
			}
			c.Next()
			return
		}
		claims, err := validateBearer(validator, header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setLearnerContext(c, opts, claims)
		c.Next()
	}
}

// AdminTokenMiddleware grants the admin role to requests presenting the
// configured token in X-Admin-Token. An empty token disables it.
func AdminTokenMiddleware(token string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(token))
	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader(adminTokenHeader))
		if len(want) > 0 && got != "" && subtle.ConstantTimeCompare([]byte(got), want) == 1 {
			c.Set("userRole", RoleAdmin)
		}
		c.Next()
	}
}

func validateBearer(validator auth.Validator, authHeader string) (*auth.Claims, error) {
	token := bearerToken(authHeader)
	if token == "" {
		return nil, fmt.Errorf("invalid Authorization format")
	}
	return validator.Validate(token)
}

func setLearnerContext(c *gin.Context, opts AuthOptions, claims *auth.Claims) {
	c.Set("userClaims", claims)
	c.Set("learner", claims.Learner())

	if isAdmin(c) {
		return
	}
	role := strings.ToUpper(strings.TrimSpace(claims.Role))
	if role == "" && opts.DevRoleHeader {
		role = strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Role")))
	}
	if role == "" {
		role = RoleLearner
	}
	c.Set("userRole", role)
}

// Learner returns the authenticated learner identity, or "" for anonymous requests.
func Learner(c *gin.Context) string {
	v, _ := c.Get("learner")
	s, _ := v.(string)
	return s
}

func isAdmin(c *gin.Context) bool {
	v, _ := c.Get("userRole")
	role, _ := v.(string)
	return role == RoleAdmin
}
