package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/resource-pull/pkg/db/models"
)

// SetupDatabase runs migrations and opens a GORM connection
func SetupDatabase(logger *logrus.Logger, config *DBConfig) (*gorm.DB, error) {
	logger.Debug("Starting database setup")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	if err := RunMigrations(logger, config); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"host": config.Host,
		"name": config.Name,
	}).Debug("Establishing GORM database connection")

	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger: NewGormLogrusLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.PhoneNumber{}, &models.PullRun{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}

	logger.Info("Database setup completed successfully")
	return db, nil
}
