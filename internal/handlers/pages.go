package handlers

import (
	"net/http"

	"retail-audit/internal/middleware"

	"github.com/gin-gonic/gin"
)

func IndexPage(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}
