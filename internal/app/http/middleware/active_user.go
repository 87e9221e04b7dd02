package middleware

import (
	"net/http"

	"course-studio/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireActiveUser rejects tokens whose user no longer exists and refreshes
// the role from the database, so a demoted account loses permissions before
// its token expires.
func RequireActiveUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user users.User
		err := db.WithContext(c.Request.Context()).
			Select("id", "role").
			First(&user, "id = ?", c.GetUint("user_id")).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			return
		}
		c.Set("role", user.Role)
		c.Next()
	}
}
