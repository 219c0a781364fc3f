package database

import (
	"errors"
	"fmt"
	"strings"

	"retail-audit/internal/models"

	"gorm.io/gorm"
)

var (
	ErrStoreNotFound  = errors.New("store not found")
	ErrDuplicateStore = errors.New("store code already exists")
	// ErrInvalidStoreCode: код вне models.CodePattern не сможет хранить фото
	ErrInvalidStoreCode = errors.New("invalid store code")
)

type StoreFilter struct {
	City   string
	Status models.StoreStatus
}

func ListStores(filter StoreFilter) ([]models.Store, error) {
	q := DB.Order("code asc")
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var stores []models.Store
	if err := q.Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func FindStore(code string) (*models.Store, error) {
	var store models.Store
	err := DB.Where("code = ?", code).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find store %s: %w", code, err)
	}
	return &store, nil
}

// Cities — список городов для фильтра на дашборде
func Cities() ([]string, error) {
	var cities []string
	err := DB.Model(&models.Store{}).
		Where("city <> ''").
		Distinct("city").
		Order("city asc").
		Pluck("city", &cities).Error
	return cities, err
}

func CreateStore(store *models.Store) error {
	store.Code = strings.ToUpper(strings.TrimSpace(store.Code))
	if !models.ValidCode(store.Code) {
		return fmt.Errorf("%w: %q", ErrInvalidStoreCode, store.Code)
	}

	var count int64
	if err := DB.Model(&models.Store{}).Where("code = ?", store.Code).Count(&count).Error; err != nil {
		return fmt.Errorf("check store code: %w", err)
	}
	if count > 0 {
		return ErrDuplicateStore
	}

	if store.Status == "" {
		store.Status = models.StoreOpen
	}
	if err := DB.Create(store).Error; err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}

func SaveStore(store *models.Store) error {
	if err := DB.Save(store).Error; err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}
