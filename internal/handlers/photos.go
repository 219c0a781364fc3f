package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"retail-audit/internal/database"
	"retail-audit/internal/models"
	"retail-audit/internal/photos"

	"github.com/gin-gonic/gin"
)

// storePhoto — проверка прав, сжатие и сохранение одной фотографии
func storePhoto(c *gin.Context, user models.User, storeCode, category string, t photos.PhotoType, raw []byte) error {
	if Photos == nil {
		return errors.New("almacenamiento de fotos no configurado")
	}
	if t == photos.TypeGuide && user.Role != models.RoleAdmin {
		return errors.New("solo el administrador sube fotos guía")
	}
	if t == photos.TypeCurrent && !user.CanCaptureStore(storeCode) {
		return errors.New("no puedes subir fotos de esta tienda")
	}

	key, err := photos.Key(storeCode, category, t)
	if err != nil {
		return err
	}

	enc, err := Photos.Upload(c.Request.Context(), key, raw)
	if errors.Is(err, photos.ErrUnsupportedFormat) {
		return errors.New("formato de imagen no soportado")
	}
	if errors.Is(err, photos.ErrImageTooLarge) {
		return errors.New("la imagen tiene una resolución demasiado grande")
	}
	if err != nil {
		return errors.New("error al guardar la foto")
	}

	database.CreateAuditLog(user.ID, "photo", 0, "upload",
		fmt.Sprintf("Foto %s (%s, %d bytes)", key, enc.ContentType, len(enc.Data)))
	return nil
}

// ShowStorePhotos — сравнение «guía» и «actual» по категориям
func ShowStorePhotos(c *gin.Context) {
	store, err := database.FindStore(c.Param("code"))
	if errors.Is(err, database.ErrStoreNotFound) {
		c.String(http.StatusNotFound, "Tienda no encontrada")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error al cargar la tienda")
		return
	}

	renderStorePhotos(c, http.StatusOK, *store, c.Query("error"))
}

func renderStorePhotos(c *gin.Context, status int, store models.Store, msg string) {
	user := currentUser(c)
	render(c, status, "store_photos.html", gin.H{
		"error":         msg,
		"store":         store,
		"items":         buildItemViews(c.Request.Context(), store.Code, nil),
		"canUploadCurr": user.CanCaptureStore(store.Code),
	})
}

func UploadStorePhoto(c *gin.Context) {
	user := currentUser(c)

	store, err := database.FindStore(c.Param("code"))
	if err != nil {
		c.String(http.StatusNotFound, "Tienda no encontrada")
		return
	}

	category := strings.TrimSpace(c.PostForm("category"))
	if _, ok := findCategory(category); !ok {
		renderStorePhotos(c, http.StatusBadRequest, *store, "Categoría desconocida")
		return
	}

	t, err := photos.ParseType(c.PostForm("type"))
	if err != nil {
		renderStorePhotos(c, http.StatusBadRequest, *store, "Tipo de foto inválido")
		return
	}

	raw, ok, err := readUpload(c, "photo")
	if err != nil || !ok {
		renderStorePhotos(c, http.StatusBadRequest, *store, "Selecciona una foto")
		return
	}

	if err := storePhoto(c, user, store.Code, category, t, raw); err != nil {
		renderStorePhotos(c, http.StatusBadRequest, *store, err.Error())
		return
	}

	c.Redirect(http.StatusFound, "/stores/"+store.Code+"/photos")
}

// ServePhoto отдаёт последнюю версию фото по ключу
func ServePhoto(c *gin.Context) {
	if Photos == nil {
		c.Status(http.StatusNotFound)
		return
	}

	t, err := photos.ParseType(c.Param("type"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	key, err := photos.Key(c.Param("store"), c.Param("category"), t)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	blob, err := Photos.Latest(c.Request.Context(), key)
	if errors.Is(err, photos.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		c.String(http.StatusBadGateway, "Error al leer la foto")
		return
	}

	// ключ перезаписывается при каждой загрузке
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}

// SweepPhotos — ручной запуск очистки старых версий
func SweepPhotos(c *gin.Context) {
	if Photos == nil {
		c.String(http.StatusServiceUnavailable, "almacenamiento de fotos no configurado")
		return
	}

	res, err := Photos.Sweep(c.Request.Context())
	if err != nil {
		c.String(http.StatusBadGateway, "Error en la limpieza: %v", err)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "photo", 0, "sweep",
		fmt.Sprintf("Limpieza: %d claves, %d versiones eliminadas", res.Keys, res.Removed))

	render(c, http.StatusOK, "photos_sweep.html", gin.H{
		"result":    res,
		"retention": Photos.Retention(),
	})
}
