package database

import (
	"fmt"

	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/items"
	"course-studio/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB connects to PostgreSQL and migrates every model.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	db, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open wraps gorm.Open with the settings shared by production and tests.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: false,
		TranslateError:                           true,
	})
}

// Migrate creates or updates all tables. Parents come before children so
// foreign keys resolve.
func Migrate(db *gorm.DB) error {
	models := []interface{}{&users.User{}}
	models = append(models, courses.Models()...)
	models = append(models, items.Models()...)

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
