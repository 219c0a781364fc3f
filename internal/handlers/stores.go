package handlers

import (
	"errors"
	"net/http"
	"strings"

	"retail-audit/internal/database"
	"retail-audit/internal/models"

	"github.com/gin-gonic/gin"
)

// ListStores — справочник магазинов
func ListStores(c *gin.Context) {
	stores, err := database.ListStores(database.StoreFilter{})
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar tiendas")
		return
	}

	render(c, http.StatusOK, "stores_list.html", gin.H{
		"stores": stores,
	})
}

func ShowNewStore(c *gin.Context) {
	render(c, http.StatusOK, "stores_new.html", gin.H{
		"error":    "",
		"statuses": storeStatuses(),
	})
}

type storeForm struct {
	Code    string `form:"code"`
	Name    string `form:"name"`
	City    string `form:"city"`
	Manager string `form:"manager"`
	Status  string `form:"status"`
}

func (f storeForm) validate() string {
	if len(strings.TrimSpace(f.Name)) < 3 {
		return "El nombre debe tener al menos 3 caracteres"
	}
	switch models.StoreStatus(f.Status) {
	case models.StoreOpen, models.StoreClosed:
	default:
		return "Estatus inválido"
	}
	return ""
}

func CreateStore(c *gin.Context) {
	var form storeForm
	_ = c.ShouldBind(&form)

	if strings.TrimSpace(form.Code) == "" {
		renderStoreError(c, "stores_new.html", nil, "Indica el código de la tienda")
		return
	}
	if !models.ValidCode(strings.TrimSpace(form.Code)) {
		renderStoreError(c, "stores_new.html", nil, "El código solo admite letras, números, '_' y '-'")
		return
	}
	if msg := form.validate(); msg != "" {
		renderStoreError(c, "stores_new.html", nil, msg)
		return
	}

	store := models.Store{
		Code:    form.Code,
		Name:    strings.TrimSpace(form.Name),
		City:    strings.TrimSpace(form.City),
		Manager: strings.TrimSpace(form.Manager),
		Status:  models.StoreStatus(form.Status),
	}

	if err := database.CreateStore(&store); err != nil {
		msg := "Error al guardar la tienda"
		switch {
		case errors.Is(err, database.ErrDuplicateStore):
			msg = "Ya existe una tienda con ese código"
		case errors.Is(err, database.ErrInvalidStoreCode):
			msg = "El código solo admite letras, números, '_' y '-'"
		}
		renderStoreError(c, "stores_new.html", nil, msg)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "store", store.ID, "create", "Tienda creada: "+store.Code)

	c.Redirect(http.StatusFound, "/stores")
}

func ShowEditStore(c *gin.Context) {
	store, err := database.FindStore(c.Param("code"))
	if err != nil {
		c.String(http.StatusNotFound, "Tienda no encontrada")
		return
	}

	render(c, http.StatusOK, "stores_edit.html", gin.H{
		"store":    store,
		"error":    "",
		"statuses": storeStatuses(),
	})
}

// код магазина не меняется — на него ссылаются захваты и фото
func UpdateStore(c *gin.Context) {
	store, err := database.FindStore(c.Param("code"))
	if err != nil {
		c.String(http.StatusNotFound, "Tienda no encontrada")
		return
	}

	var form storeForm
	_ = c.ShouldBind(&form)

	if msg := form.validate(); msg != "" {
		renderStoreError(c, "stores_edit.html", store, msg)
		return
	}

	store.Name = strings.TrimSpace(form.Name)
	store.City = strings.TrimSpace(form.City)
	store.Manager = strings.TrimSpace(form.Manager)
	store.Status = models.StoreStatus(form.Status)

	if err := database.SaveStore(store); err != nil {
		renderStoreError(c, "stores_edit.html", store, "Error al guardar la tienda")
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "store", store.ID, "update", "Tienda actualizada: "+store.Code)

	c.Redirect(http.StatusFound, "/stores")
}

func renderStoreError(c *gin.Context, tmpl string, store *models.Store, msg string) {
	render(c, http.StatusBadRequest, tmpl, gin.H{
		"error":    msg,
		"store":    store,
		"statuses": storeStatuses(),
	})
}

func storeStatuses() []models.StoreStatus {
	return []models.StoreStatus{models.StoreOpen, models.StoreClosed}
}
