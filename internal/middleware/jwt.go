package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin-console/internal/auth"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
	"github.com/noah-isme/wellness-admin-console/pkg/response"
)

// ContextOperatorKey is the gin context key storing the operator's claims.
const ContextOperatorKey = "currentOperator"

// JWT protects console routes with an operator token. A nil verifier means
// console auth is disabled and every request passes.
func JWT(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := verifier.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextOperatorKey, claims)
		c.Next()
	}
}

// Operator returns the authenticated operator, if any.
func Operator(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextOperatorKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
