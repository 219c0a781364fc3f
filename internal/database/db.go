package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"retail-audit/internal/models"
	"retail-audit/internal/retry"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		if dsn == ":memory:" {
			dsn = memoryDSN("retail-audit")
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Open подключается к БД с повторами и прогоняет миграции
func Open(driver, dsn string) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	opts := retry.Options{
		MaxAttempts:     10,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Name:            "connect to DB",
	}
	db, err := retry.Do(context.Background(), opts, func() (*gorm.DB, error) {
		return gorm.Open(d, &gorm.Config{})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func memoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

// OpenMemory — демо-режим и тесты: отдельная in-memory SQLite на каждое имя
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := Open("sqlite", memoryDSN(name))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.Capture{},
		&models.CaptureItem{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func Init(driver, dsn, adminUsername, adminPassword string) {
	var err error
	DB, err = Open(driver, dsn)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("connected to DB successfully (driver=%s)", driver)

	if err := EnsureAdmin(adminUsername, adminPassword); err != nil {
		log.Printf("failed to create default admin: %v", err)
	}
}

// EnsureAdmin создаёт админа, если в системе нет ни одного
func EnsureAdmin(username, password string) error {
	var count int64
	if err := DB.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := CreateUser(username, password, models.RoleAdmin, ""); err != nil {
		return err
	}

	log.Printf("created default admin user: %s", username)
	return nil
}

func CreateUser(username, password string, role models.UserRole, storeCode string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		StoreCode:    storeCode,
	}
	if err := DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return &user, nil
}

// Authenticate проверяет логин/пароль
func Authenticate(username, password string) (*models.User, bool) {
	var user models.User
	if err := DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, false
	}
	return &user, true
}
