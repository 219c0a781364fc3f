package models

import "gorm.io/gorm"

type StoreStatus string

const (
	StoreOpen   StoreStatus = "open"
	StoreClosed StoreStatus = "closed"
)

type Store struct {
	gorm.Model
	Code    string      `gorm:"size:32;uniqueIndex;not null"` // например: T001
	Name    string      `gorm:"size:255;not null"`
	City    string      `gorm:"size:100;index"`
	Manager string      `gorm:"size:255"`
	Status  StoreStatus `gorm:"type:varchar(20);not null;default:'open'"`
}
