package handlers

import (
	"bytes"
	"net/http"

	"retail-audit/internal/database"
	"retail-audit/internal/export"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func exportRows(c *gin.Context) ([]export.Row, string, string, bool) {
	from := c.DefaultQuery("from", today())
	to := c.DefaultQuery("to", from)
	if !validDate(from) || !validDate(to) || from > to {
		c.String(http.StatusBadRequest, "Rango de fechas inválido")
		return nil, "", "", false
	}

	captures, err := database.CapturesBetween(from, to)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar capturas")
		return nil, "", "", false
	}

	stores, err := database.ListStores(database.StoreFilter{})
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar tiendas")
		return nil, "", "", false
	}
	byCode := make(map[string]int, len(stores))
	for i, s := range stores {
		byCode[s.Code] = i
	}

	rows := make([]export.Row, 0, len(captures))
	for _, capture := range captures {
		row := export.Row{Capture: capture}
		if i, ok := byCode[capture.StoreCode]; ok {
			row.Store = stores[i]
		}
		rows = append(rows, row)
	}
	return rows, from, to, true
}

func ExportCSV(c *gin.Context) {
	rows, from, to, ok := exportRows(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows, Categories); err != nil {
		c.String(http.StatusInternalServerError, "Error al generar CSV")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="capturas_`+from+`_`+to+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func ExportXLSX(c *gin.Context) {
	rows, from, to, ok := exportRows(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rows, Categories); err != nil {
		c.String(http.StatusInternalServerError, "Error al generar Excel")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="capturas_`+from+`_`+to+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
