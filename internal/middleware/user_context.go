package middleware

import (
	"retail-audit/internal/database"
	"retail-audit/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CurrentUserKey = "CurrentUser"

func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get("user_id").(uint); ok && uid > 0 {
			var user models.User
			if err := database.DB.First(&user, uid).Error; err == nil {
				c.Set(CurrentUserKey, user)
			}
		}

		c.Next()
	}
}

// CurrentUser — пользователь, которого положил InjectUser
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}
