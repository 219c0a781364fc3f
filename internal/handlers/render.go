package handlers

import (
	"retail-audit/internal/middleware"
	"retail-audit/internal/models"

	"github.com/gin-gonic/gin"
)

// render — обёртка над c.HTML, которая во все шаблоны прокидывает CurrentUser.
func render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if u, ok := middleware.CurrentUser(c); ok {
		data["CurrentUser"] = u
		data["CurrentUsername"] = u.Username
		data["CurrentUserRole"] = u.Role
		data["IsAdmin"] = u.Role == models.RoleAdmin
		data["CanExport"] = u.Role == models.RoleAdmin || u.Role == models.RoleRegional
	}

	c.HTML(status, tmpl, data)
}

func currentUser(c *gin.Context) models.User {
	u, _ := middleware.CurrentUser(c)
	return u
}
