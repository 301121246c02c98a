package bootstrap

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	"github.com/lisanmuaddib/resource-pull/pkg/ledgerstore"
)

const (
	LedgerPostgres = "postgres"
	LedgerObject   = "object"
	LedgerRedis    = "redis"
	LedgerFile     = "file"

	SinkSheets = "sheets"
	SinkFile   = "file"

	VocabBuiltin = "builtin"
	VocabFile    = "file"
	VocabSheets  = "sheets"
)

// Config selects the backends for a pull and carries their settings.
type Config struct {
	Pull *harvest.Config

	LedgerBackend string
	SinkMode      string
	VocabSource   string

	LedgerFile string
	SinkFile   string
	VocabFile  string

	Object ledgerstore.ObjectConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// NewConfig loads .env if present and reads the backend selection.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	pull, err := harvest.NewConfig()
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
	}

	config := &Config{
		Pull: pull,

		LedgerBackend: getEnvOrDefault("LEDGER_BACKEND", LedgerFile),
		SinkMode:      getEnvOrDefault("SINK_MODE", SinkSheets),
		VocabSource:   getEnvOrDefault("VOCAB_SOURCE", VocabBuiltin),

		LedgerFile: getEnvOrDefault("LEDGER_FILE", "data/phoneNumbers.json"),
		SinkFile:   getEnvOrDefault("SINK_FILE", "data/rows.ndjson"),
		VocabFile:  os.Getenv("VOCAB_FILE"),

		Object: ledgerstore.ObjectConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    useSSL,
			Region:    getEnvOrDefault("MINIO_REGION", ledgerstore.DefaultRegion),
			Bucket:    getEnvOrDefault("MINIO_BUCKET", ledgerstore.DefaultBucket),
			Object:    getEnvOrDefault("MINIO_OBJECT", ledgerstore.DefaultObject),
		},

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisKey:      getEnvOrDefault("REDIS_KEY", ledgerstore.DefaultRedisKey),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.LedgerBackend {
	case LedgerPostgres, LedgerObject, LedgerRedis, LedgerFile:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND: %s (use 'postgres', 'object', 'redis', or 'file')", c.LedgerBackend)
	}
	switch c.SinkMode {
	case SinkSheets, SinkFile:
	default:
		return fmt.Errorf("unknown SINK_MODE: %s (use 'sheets' or 'file')", c.SinkMode)
	}
	switch c.VocabSource {
	case VocabBuiltin, VocabSheets:
	case VocabFile:
		if c.VocabFile == "" {
			return fmt.Errorf("VOCAB_FILE is required when VOCAB_SOURCE=file")
		}
	default:
		return fmt.Errorf("unknown VOCAB_SOURCE: %s (use 'builtin', 'file', or 'sheets')", c.VocabSource)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
