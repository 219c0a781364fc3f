package handlers

import (
	"net/http"

	"retail-audit/internal/database"

	"github.com/gin-gonic/gin"
)

func ListAuditLogs(c *gin.Context) {
	logs, err := database.RecentAuditLogs(200)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar la bitácora")
		return
	}

	render(c, http.StatusOK, "audit_list.html", gin.H{
		"logs": logs,
	})
}
