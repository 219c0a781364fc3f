package models

import "gorm.io/gorm"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleRegional UserRole = "regional"
	RoleManager  UserRole = "manager"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleRegional, RoleManager:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
	StoreCode    string   `gorm:"size:32"` // для менеджера — его магазин; пусто = любой
}

// CanCaptureStore — менеджер с привязкой к магазину пишет только в свой
func (u User) CanCaptureStore(code string) bool {
	if u.Role == RoleRegional {
		return false
	}
	if u.Role == RoleManager && u.StoreCode != "" {
		return u.StoreCode == code
	}
	return true
}
