package models

import "gorm.io/gorm"

// DateLayout — формат даты захвата в БД и в формах
const DateLayout = "2006-01-02"

const (
	MinRating = 1
	MaxRating = 5
)

// Capture — ежедневный аудит одного магазина; уникален по (дата, магазин)
type Capture struct {
	gorm.Model
	Date      string `gorm:"size:10;not null;uniqueIndex:idx_capture_date_store"`
	StoreCode string `gorm:"size:32;not null;uniqueIndex:idx_capture_date_store"`
	Notes     string `gorm:"type:text"`

	UpdatedByID uint

	Items []CaptureItem
}

// CaptureItem — оценка одной категории внутри захвата
type CaptureItem struct {
	ID        uint   `gorm:"primaryKey"`
	CaptureID uint   `gorm:"not null;uniqueIndex:idx_item_capture_category"`
	Category  string `gorm:"size:64;not null;uniqueIndex:idx_item_capture_category"`
	Compliant bool
	Notes     string `gorm:"type:text"`
	Rating    *int   // 1–5, выставляет только админ
}

// Item возвращает пункт по ключу категории
func (c Capture) Item(category string) (CaptureItem, bool) {
	for _, it := range c.Items {
		if it.Category == category {
			return it, true
		}
	}
	return CaptureItem{}, false
}
