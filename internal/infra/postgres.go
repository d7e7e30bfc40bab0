package infra

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbm "tripcraft/internal/models/db_models"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/utils"
)

// InitPostgresql opens the analytics database and migrates its tables.
func InitPostgresql(dsn string, log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %v", utils.ErrDatabaseError, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.AutoMigrate(&dbm.AnalyticsEvent{}); err != nil {
		return nil, fmt.Errorf("%w: migrating analytics tables: %v", utils.ErrDatabaseError, err)
	}
	log.Info("postgres connected")
	return db, nil
}

func ClosePostgresql(db *gorm.DB, log *logger.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("error getting database instance", "error", err.Error())
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("error closing database connection", "error", err.Error())
		return
	}
	log.Info("postgres connection closed")
}
