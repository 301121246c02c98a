package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. format "json" selects logrus' plain
// JSON output for log shippers; anything else uses the colored formatter.
func NewLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(parsed)

	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text", "color":
		logger.SetFormatter(NewColoredJSONFormatter())
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return logger, nil
}
