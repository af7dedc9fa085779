package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nmtun/seeboi-backend/internal/auth"
)

// OptionalJWT sets user claims in context when a valid bearer token is
// present, but never rejects the request. Handlers read the user id with
// UserIDFromContext and treat zero as anonymous.
func OptionalJWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := jwtService.Validate(parts[1]); err == nil {
					c.Set(ContextUserID, claims.UserID)
					c.Set(ContextUserRole, claims.Role)
					c.Set(ContextUserEmail, claims.Email)
				}
			}
		}
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user id, or 0 when the request
// is anonymous.
func UserIDFromContext(c *gin.Context) int64 {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}
