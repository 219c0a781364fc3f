package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"retail-audit/internal/database"
	"retail-audit/internal/models"
	"retail-audit/internal/photos"

	"github.com/gin-gonic/gin"
)

type captureItemView struct {
	Category   models.Category
	Compliant  bool
	Notes      string
	Rating     int
	HasGuide   bool
	HasCurrent bool
}

// storesFor — магазины, доступные пользователю в форме захвата
func storesFor(user models.User) ([]models.Store, error) {
	stores, err := database.ListStores(database.StoreFilter{})
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleManager && user.StoreCode != "" {
		var own []models.Store
		for _, s := range stores {
			if s.Code == user.StoreCode {
				own = append(own, s)
			}
		}
		return own, nil
	}
	return stores, nil
}

func buildItemViews(ctx context.Context, storeCode string, capture *models.Capture) []captureItemView {
	views := make([]captureItemView, 0, len(Categories))
	for _, cat := range Categories {
		v := captureItemView{Category: cat}
		if capture != nil {
			if it, ok := capture.Item(cat.Key); ok {
				v.Compliant = it.Compliant
				v.Notes = it.Notes
				if it.Rating != nil {
					v.Rating = *it.Rating
				}
			}
		}
		if Photos != nil && storeCode != "" {
			if key, err := photos.Key(storeCode, cat.Key, photos.TypeGuide); err == nil {
				v.HasGuide = Photos.Has(ctx, key)
			}
			if key, err := photos.Key(storeCode, cat.Key, photos.TypeCurrent); err == nil {
				v.HasCurrent = Photos.Has(ctx, key)
			}
		}
		views = append(views, v)
	}
	return views
}

func ShowCaptureForm(c *gin.Context) {
	user := currentUser(c)
	if user.Role == models.RoleRegional {
		c.String(http.StatusForbidden, "acceso denegado")
		return
	}

	date := c.DefaultQuery("date", today())
	if !validDate(date) {
		date = today()
	}

	renderCaptureForm(c, http.StatusOK, date, c.Query("store"), "", c.Query("saved") == "1")
}

func renderCaptureForm(c *gin.Context, status int, date, storeCode, msg string, saved bool) {
	user := currentUser(c)

	stores, err := storesFor(user)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar tiendas")
		return
	}
	if len(stores) == 0 {
		render(c, http.StatusOK, "capture_form.html", gin.H{
			"error": "No hay tiendas disponibles para captura",
			"date":  date,
		})
		return
	}

	// по умолчанию — магазин из клика на дашборде, иначе первый в списке
	selected := stores[0]
	for _, s := range stores {
		if s.Code == storeCode {
			selected = s
			break
		}
	}

	capture, err := database.FindCapture(date, selected.Code)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar la captura")
		return
	}

	notes := ""
	if capture != nil {
		notes = capture.Notes
	}

	render(c, status, "capture_form.html", gin.H{
		"error":   msg,
		"saved":   saved,
		"date":    date,
		"stores":  stores,
		"store":   selected,
		"notes":   notes,
		"exists":  capture != nil,
		"items":   buildItemViews(c.Request.Context(), selected.Code, capture),
		"ratings": []int{1, 2, 3, 4, 5},
	})
}

func parseRating(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, database.ErrInvalidRating
	}
	return &v, nil
}

func SaveCapture(c *gin.Context) {
	user := currentUser(c)

	date := strings.TrimSpace(c.PostForm("date"))
	storeCode := strings.TrimSpace(c.PostForm("store"))

	if !user.CanCaptureStore(storeCode) {
		c.String(http.StatusForbidden, "No puedes capturar esta tienda")
		return
	}

	isAdmin := user.Role == models.RoleAdmin
	in := database.CaptureInput{
		Date:        date,
		StoreCode:   storeCode,
		Notes:       strings.TrimSpace(c.PostForm("notes")),
		UserID:      user.ID,
		AllowRating: isAdmin,
	}

	for _, cat := range Categories {
		item := database.ItemInput{
			Category:  cat.Key,
			Compliant: c.PostForm(cat.Key+"_cumple") == "si",
			Notes:     strings.TrimSpace(c.PostForm(cat.Key + "_notas")),
		}
		if isAdmin {
			rating, err := parseRating(c.PostForm(cat.Key + "_rating"))
			if err != nil {
				renderCaptureForm(c, http.StatusBadRequest, date, storeCode, "La calificación debe ser de 1 a 5", false)
				return
			}
			item.Rating = rating
		}
		in.Items = append(in.Items, item)
	}

	capture, err := database.UpsertCapture(c.Request.Context(), in)
	switch {
	case errors.Is(err, database.ErrInvalidDate):
		renderCaptureForm(c, http.StatusBadRequest, today(), storeCode, "Fecha inválida", false)
		return
	case errors.Is(err, database.ErrInvalidRating):
		renderCaptureForm(c, http.StatusBadRequest, date, storeCode, "La calificación debe ser de 1 a 5", false)
		return
	case errors.Is(err, database.ErrStoreNotFound):
		c.String(http.StatusNotFound, "Tienda no encontrada")
		return
	case err != nil:
		renderCaptureForm(c, http.StatusInternalServerError, date, storeCode, "Error al guardar la captura", false)
		return
	}

	database.CreateAuditLog(user.ID, "capture", capture.ID, "upsert",
		fmt.Sprintf("Captura %s / %s", capture.Date, capture.StoreCode))

	// фото из формы захвата — всегда «текущие»
	var photoErrs []string
	for _, cat := range Categories {
		raw, ok, err := readUpload(c, cat.Key+"_foto")
		if err != nil {
			photoErrs = append(photoErrs, cat.Label+": "+err.Error())
			continue
		}
		if !ok {
			continue
		}
		if err := storePhoto(c, user, storeCode, cat.Key, photos.TypeCurrent, raw); err != nil {
			photoErrs = append(photoErrs, cat.Label+": "+err.Error())
		}
	}

	if len(photoErrs) > 0 {
		renderCaptureForm(c, http.StatusUnprocessableEntity, date, storeCode,
			"Captura guardada, pero fallaron fotos: "+strings.Join(photoErrs, "; "), true)
		return
	}

	q := url.Values{"store": {storeCode}, "date": {date}, "saved": {"1"}}
	c.Redirect(http.StatusFound, "/captures/new?"+q.Encode())
}

// readUpload читает файл формы; ok=false, если поле пустое
func readUpload(c *gin.Context, field string) ([]byte, bool, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if fh.Size > maxUploadBytes {
		return nil, false, errors.New("archivo demasiado grande")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	return raw, true, nil
}
