package handlers

import (
	"time"

	"retail-audit/internal/models"
	"retail-audit/internal/photos"
)

const maxUploadBytes = 10 << 20

var (
	Photos     *photos.Service
	Categories []models.Category

	// Now — источник «сегодня» для дашборда и формы захвата
	Now = time.Now
)

// Configure подключает хранилище фото и каталог категорий
func Configure(photoService *photos.Service, categories []models.Category) {
	Photos = photoService
	Categories = categories
}

func today() string {
	return Now().Format(models.DateLayout)
}

func validDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

func findCategory(key string) (models.Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return models.Category{}, false
}
