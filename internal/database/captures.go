package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-audit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidDate   = errors.New("invalid capture date")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

type ItemInput struct {
	Category  string
	Compliant bool
	Notes     string
	Rating    *int
}

type CaptureInput struct {
	Date      string
	StoreCode string
	Notes     string
	UserID    uint
	// только админ может выставлять оценку; иначе оценки из формы игнорируются
	AllowRating bool
	Items       []ItemInput
}

func (in CaptureInput) validate() error {
	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return ErrInvalidDate
	}
	if !in.AllowRating {
		return nil
	}
	for _, it := range in.Items {
		if it.Rating != nil && (*it.Rating < models.MinRating || *it.Rating > models.MaxRating) {
			return ErrInvalidRating
		}
	}
	return nil
}

// UpsertCapture находит или создаёт захват по (дата, магазин) и обновляет
// пункты по категориям.
func UpsertCapture(ctx context.Context, in CaptureInput) (*models.Capture, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := FindStore(in.StoreCode); err != nil {
		return nil, err
	}

	var capture models.Capture
	err := DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.Capture{Date: in.Date, StoreCode: in.StoreCode}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "store_code"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return fmt.Errorf("create capture: %w", err)
		}

		if err := tx.Where("date = ? AND store_code = ?", in.Date, in.StoreCode).
			First(&capture).Error; err != nil {
			return fmt.Errorf("load capture: %w", err)
		}

		capture.Notes = in.Notes
		capture.UpdatedByID = in.UserID
		if err := tx.Save(&capture).Error; err != nil {
			return fmt.Errorf("save capture: %w", err)
		}

		updates := []string{"compliant", "notes"}
		if in.AllowRating {
			updates = append(updates, "rating")
		}

		for _, it := range in.Items {
			item := models.CaptureItem{
				CaptureID: capture.ID,
				Category:  it.Category,
				Compliant: it.Compliant,
				Notes:     it.Notes,
			}
			if in.AllowRating {
				item.Rating = it.Rating
			}

			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "capture_id"}, {Name: "category"}},
				DoUpdates: clause.AssignmentColumns(updates),
			}).Create(&item).Error; err != nil {
				return fmt.Errorf("upsert item %s: %w", it.Category, err)
			}
		}

		return tx.Preload("Items").First(&capture, capture.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &capture, nil
}

// FindCapture возвращает nil без ошибки, если захвата нет
func FindCapture(date, storeCode string) (*models.Capture, error) {
	var capture models.Capture
	err := DB.Preload("Items").
		Where("date = ? AND store_code = ?", date, storeCode).
		First(&capture).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find capture: %w", err)
	}
	return &capture, nil
}

// CapturesOn — захваты за день, ключ — код магазина
func CapturesOn(date string) (map[string]models.Capture, error) {
	var captures []models.Capture
	if err := DB.Preload("Items").Where("date = ?", date).Find(&captures).Error; err != nil {
		return nil, fmt.Errorf("captures on %s: %w", date, err)
	}

	byStore := make(map[string]models.Capture, len(captures))
	for _, c := range captures {
		byStore[c.StoreCode] = c
	}
	return byStore, nil
}

func CapturesBetween(from, to string) ([]models.Capture, error) {
	var captures []models.Capture
	err := DB.Preload("Items").
		Where("date >= ? AND date <= ?", from, to).
		Order("date asc, store_code asc").
		Find(&captures).Error
	if err != nil {
		return nil, fmt.Errorf("captures between %s and %s: %w", from, to, err)
	}
	return captures, nil
}
