package twitter

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type TwitterConfig struct {
	// API Authentication
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
	BearerToken       string

	// API Endpoints
	BaseURL        string
	SearchEndpoint string

	// Rate Limiting. RateLimit requests per RateWindow minutes.
	RateLimit  int
	RateWindow int

	// Fields requested on every tweet
	TweetFields []string

	Timeout time.Duration

	Logger *logrus.Logger
}

func NewTwitterConfig() (*TwitterConfig, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	rateLimit, err := strconv.Atoi(getEnvOrDefault("TWITTER_RATE_LIMIT", "450"))
	if err != nil {
		return nil, fmt.Errorf("invalid TWITTER_RATE_LIMIT: %w", err)
	}
	rateWindow, err := strconv.Atoi(getEnvOrDefault("TWITTER_RATE_WINDOW", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid TWITTER_RATE_WINDOW: %w", err)
	}
	timeout, err := time.ParseDuration(getEnvOrDefault("TWITTER_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TWITTER_TIMEOUT: %w", err)
	}

	config := &TwitterConfig{
		ConsumerKey:       os.Getenv("TWITTER_CONSUMER_KEY"),
		ConsumerSecret:    os.Getenv("TWITTER_CONSUMER_SECRET"),
		AccessToken:       os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("TWITTER_ACCESS_TOKEN_SECRET"),
		BearerToken:       os.Getenv("TWITTER_BEARER_TOKEN"),

		BaseURL:        getEnvOrDefault("TWITTER_API_BASE_URL", BaseURL),
		SearchEndpoint: "/tweets/search/recent",

		RateLimit:  rateLimit,
		RateWindow: rateWindow,

		TweetFields: []string{"id", "text", "created_at"},
		Timeout:     timeout,

		Logger: func() *logrus.Logger {
			log := logrus.New()
			if level := os.Getenv("LOG_LEVEL"); level != "" {
				if parsedLevel, err := logrus.ParseLevel(level); err == nil {
					log.SetLevel(parsedLevel)
				}
			}
			return log
		}(),
	}

	config.Logger.WithFields(logrus.Fields{
		"consumer_key_exists": config.ConsumerKey != "",
		"bearer_token_exists": config.BearerToken != "",
		"base_url":            config.BaseURL,
		"rate_limit":          config.RateLimit,
	}).Debug("Twitter config initialized")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *TwitterConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	// Search only needs read access: app bearer token or user OAuth 1.0a.
	if !c.HasReadAccess() {
		c.Logger.WithFields(logrus.Fields{
			"consumer_key_exists":        c.ConsumerKey != "",
			"consumer_secret_exists":     c.ConsumerSecret != "",
			"access_token_exists":        c.AccessToken != "",
			"access_token_secret_exists": c.AccessTokenSecret != "",
		}).Debug("OAuth credentials validation")
		return fmt.Errorf("either OAuth 1.0a credentials or Bearer token must be provided")
	}

	if c.RateLimit < 1 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateWindow < 1 {
		return fmt.Errorf("rate window must be positive")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.BaseURL == "" {
		c.BaseURL = BaseURL
	}
	if c.SearchEndpoint == "" {
		c.SearchEndpoint = "/tweets/search/recent"
	}
	if len(c.TweetFields) == 0 {
		c.TweetFields = []string{"id", "text", "created_at"}
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEndpoint returns the full URL for a given endpoint
func (c *TwitterConfig) GetEndpoint(endpoint string) string {
	return c.BaseURL + endpoint
}

// HasWriteAccess returns true if OAuth 1.0a credentials are configured
func (c *TwitterConfig) HasWriteAccess() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.AccessToken != "" && c.AccessTokenSecret != ""
}

// HasReadAccess returns true if either OAuth 1.0a or Bearer token is configured
func (c *TwitterConfig) HasReadAccess() bool {
	return c.HasWriteAccess() || c.BearerToken != ""
}
