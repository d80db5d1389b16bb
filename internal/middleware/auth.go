package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neurobridge/portal-api/internal/apperr"
	"github.com/neurobridge/portal-api/internal/identity"
)

const ContextKeyIdentity = "identity"

// AuthMiddleware validates the bearer token and resolves it to a portal
// identity before any handler runs. Resolution hits the store on every
// request — a deactivated account is shut out immediately, not at token
// expiry. A missing/invalid token aborts with 401; a valid token for a
// deactivated account aborts with 403.
func AuthMiddleware(resolver *identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format, expected: Bearer <token>"})
			return
		}

		ident, err := resolver.Resolve(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
				"error":      apperr.Message(err),
				"error_code": errCode(err),
			})
			return
		}

		c.Set(ContextKeyIdentity, ident)
		c.Next()
	}
}

func errCode(err error) string {
	if k, ok := apperr.KindOf(err); ok {
		return k.String()
	}
	return "internal"
}

// CurrentIdentity returns the identity stored by AuthMiddleware. Handlers
// behind the middleware can rely on it being present.
func CurrentIdentity(c *gin.Context) *identity.Identity {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil
	}
	ident, ok := val.(*identity.Identity)
	if !ok {
		return nil
	}
	return ident
}
