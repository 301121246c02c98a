package harvest

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the tuning knobs of a pull, loaded from PULL_* variables.
type Config struct {
	// Search
	TimeRange          time.Duration
	PageSize           int
	MaxQueryLength     int
	SplitPhoneKeywords bool
	GroupResources     bool
	AbortOnQueryError  bool

	// Rate limiting
	SearchCallsPerWindow int
	SearchWindow         time.Duration
	SinkCallsPerWindow   int
	SinkWindow           time.Duration
	RequestDelay         time.Duration
	WriteCooldown        time.Duration
	FetchCooldown        time.Duration

	// Output
	OutputSheet string
	BatchRows   int

	// Deadline bounds a whole run. Zero means no deadline.
	Deadline time.Duration
	// Schedule is a cron spec with a seconds field. Empty runs once.
	Schedule string
}

// NewConfig reads the pull configuration from the environment.
func NewConfig() (*Config, error) {
	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	integer := func(key, def string) int {
		n, err := strconv.Atoi(getEnvOrDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}
	boolean := func(key string) bool {
		b, err := strconv.ParseBool(getEnvOrDefault(key, "false"))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return b
	}

	config := &Config{
		TimeRange:          duration("PULL_TIME_RANGE", "2h"),
		PageSize:           integer("PULL_PAGE_SIZE", "100"),
		MaxQueryLength:     integer("PULL_MAX_QUERY_LENGTH", "1024"),
		SplitPhoneKeywords: boolean("PULL_SPLIT_PHONE_KEYWORDS"),
		GroupResources:     boolean("PULL_GROUP_RESOURCES"),
		AbortOnQueryError:  boolean("PULL_ABORT_ON_QUERY_ERROR"),

		SearchCallsPerWindow: integer("PULL_SEARCH_CALLS_PER_WINDOW", "450"),
		SearchWindow:         duration("PULL_SEARCH_WINDOW", "15m"),
		SinkCallsPerWindow:   integer("PULL_SINK_CALLS_PER_WINDOW", "60"),
		SinkWindow:           duration("PULL_SINK_WINDOW", "1m"),
		RequestDelay:         duration("PULL_REQUEST_DELAY", "200ms"),
		WriteCooldown:        duration("PULL_WRITE_COOLDOWN", "1m"),
		FetchCooldown:        duration("PULL_FETCH_COOLDOWN", "1m"),

		OutputSheet: getEnvOrDefault("PULL_OUTPUT_SHEET", "Sheet1"),
		BatchRows:   integer("PULL_BATCH_ROWS", "0"),

		Deadline: duration("PULL_DEADLINE", "0s"),
		Schedule: os.Getenv("PULL_SCHEDULE"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid pull config: %v", errs)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	if c.TimeRange <= 0 {
		return fmt.Errorf("time range must be positive")
	}
	if c.PageSize < 10 || c.PageSize > 100 {
		return fmt.Errorf("page size must be between 10 and 100")
	}
	if c.MaxQueryLength < 1 {
		return fmt.Errorf("max query length must be positive")
	}
	if c.SearchCallsPerWindow < 2 {
		return fmt.Errorf("search calls per window must be at least 2")
	}
	if c.SinkCallsPerWindow < 1 {
		return fmt.Errorf("sink calls per window must be positive")
	}
	if c.SearchWindow <= 0 || c.SinkWindow <= 0 {
		return fmt.Errorf("rate windows must be positive")
	}
	if c.RequestDelay < 0 || c.WriteCooldown < 0 || c.FetchCooldown < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if c.BatchRows < 0 {
		return fmt.Errorf("batch rows cannot be negative")
	}
	if c.OutputSheet == "" {
		return fmt.Errorf("output sheet is required")
	}
	return nil
}

// Planner returns the planner settings.
func (c *Config) Planner() PlannerConfig {
	return PlannerConfig{
		MaxQueryLength:     c.MaxQueryLength,
		PageSize:           c.PageSize,
		TimeRange:          c.TimeRange,
		SplitPhoneKeywords: c.SplitPhoneKeywords,
		GroupResources:     c.GroupResources,
		FetchCooldown:      c.FetchCooldown,
		AbortOnQueryError:  c.AbortOnQueryError,
	}
}

// Writer returns the writer settings.
func (c *Config) Writer() WriterConfig {
	return WriterConfig{
		SheetName: c.OutputSheet,
		Delay:     c.RequestDelay,
		Cooldown:  c.WriteCooldown,
		BatchRows: c.BatchRows,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
