package sheets

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type SheetsConfig struct {
	SpreadsheetID string

	// One of the two is required unless the service is built with
	// explicit client options.
	CredentialsFile string
	CredentialsJSON string

	// Rate Limiting. RateLimit requests per RateWindow.
	RateLimit  int
	RateWindow time.Duration

	Logger *logrus.Logger
}

func NewSheetsConfig() (*SheetsConfig, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	rateLimit, err := strconv.Atoi(getEnvOrDefault("SHEETS_RATE_LIMIT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHEETS_RATE_LIMIT: %w", err)
	}
	rateWindow, err := time.ParseDuration(getEnvOrDefault("SHEETS_RATE_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHEETS_RATE_WINDOW: %w", err)
	}

	config := &SheetsConfig{
		SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		RateLimit:       rateLimit,
		RateWindow:      rateWindow,
		Logger:          logrus.StandardLogger(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *SheetsConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("GOOGLE_SHEET_ID is required")
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
