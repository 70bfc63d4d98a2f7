package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

// TokenValidator resolves a bearer token to the user it names.
type TokenValidator interface {
	ValidateToken(token string) (*models.User, error)
}

// AuthMiddleware validates requests with JWT bearer tokens and stores the
// authenticated user in the Gin context under "user" and "user_id".
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
