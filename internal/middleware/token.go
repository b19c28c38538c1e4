package middleware

import (
	"net/http"
	"strings"

	"qanda/internal/db"
	"qanda/internal/models"
	"qanda/internal/utils"

	"github.com/gin-gonic/gin"
)

// APIAuth authenticates JSON API requests via a Bearer token and loads the
// user into the context under CheckUserKey.
func APIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := utils.ParseUserToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if err := db.DB.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}

		c.Set(CheckUserKey, &user)
		c.Next()
	}
}
