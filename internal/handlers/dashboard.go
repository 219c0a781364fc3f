package handlers

import (
	"net/http"

	"retail-audit/internal/database"
	"retail-audit/internal/models"
	"retail-audit/internal/scoring"

	"github.com/gin-gonic/gin"
)

// Dashboard — сводка за день: покрытие, средний score, сетка магазинов
func Dashboard(c *gin.Context) {
	city := c.Query("city")
	status := c.Query("status")
	date := c.DefaultQuery("date", today())
	if !validDate(date) {
		date = today()
	}

	stores, err := database.ListStores(database.StoreFilter{
		City:   city,
		Status: models.StoreStatus(status),
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar tiendas")
		return
	}

	captures, err := database.CapturesOn(date)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar capturas")
		return
	}

	cities, err := database.Cities()
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar ciudades")
		return
	}
	summary := scoring.Summarize(stores, captures, Categories)

	render(c, http.StatusOK, "dashboard.html", gin.H{
		"summary":      summary,
		"date":         date,
		"cities":       cities,
		"FilterCity":   city,
		"FilterStatus": status,
		"statuses":     []models.StoreStatus{models.StoreOpen, models.StoreClosed},
	})
}
