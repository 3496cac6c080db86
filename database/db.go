package database

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"favmovies/internal/config"
	"favmovies/internal/microservices/http-api/models"
)

// OpenGorm opens the movie store selected by DATABASE_TYPE and brings the
// schema up to date.
func OpenGorm(cfg *config.Config, logger *log.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseType {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}

	level := gormlogger.Warn
	if cfg.IsDevelopment() && cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		Close(db)
		return nil, err
	}

	logger.WithFields(log.Fields{
		"type": cfg.DatabaseType,
	}).Info("Connected to the database successfully")
	return db, nil
}

// Migrate creates or updates the movies table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Movie{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
