package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	"github.com/lisanmuaddib/resource-pull/internal/vocabulary"
	"github.com/lisanmuaddib/resource-pull/pkg/db"
	"github.com/lisanmuaddib/resource-pull/pkg/interfaces/sheets"
	"github.com/lisanmuaddib/resource-pull/pkg/ledgerstore"
	"github.com/lisanmuaddib/resource-pull/pkg/sinkfile"
)

// newLedgerStore selects the historical store by LEDGER_BACKEND. The
// recorder is nil for backends without run history. closers release
// connections opened here.
func newLedgerStore(ctx context.Context, config *Config, logger *logrus.Logger) (harvest.LedgerStore, harvest.RunRecorder, []func() error, error) {
	switch config.LedgerBackend {
	case LedgerPostgres:
		gormDB, err := db.SetupDatabase(logger, db.NewDBConfig())
		if err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		store := ledgerstore.NewPostgres(gormDB, logger)
		return snapshotStore{store}, NewPostgresRecorder(store), []func() error{sqlDB.Close}, nil

	case LedgerObject:
		store, err := ledgerstore.NewObject(&config.Object)
		if err != nil {
			return nil, nil, nil, err
		}
		return snapshotStore{store}, nil, nil, nil

	case LedgerRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", config.RedisAddr, err)
		}
		return snapshotStore{ledgerstore.NewRedis(client, config.RedisKey)}, nil, []func() error{client.Close}, nil

	case LedgerFile:
		return snapshotStore{ledgerstore.NewFile(config.LedgerFile)}, nil, nil, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown LEDGER_BACKEND: %s", config.LedgerBackend)
}

// newSheetsClient is only called when the sink or the vocabulary needs it.
func newSheetsClient(ctx context.Context, logger *logrus.Logger) (*sheets.Client, error) {
	sheetsConfig, err := sheets.NewSheetsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets config: %w", err)
	}
	sheetsConfig.Logger = logger
	return sheets.NewClient(ctx, sheetsConfig)
}

func newSink(config *Config, sheetsClient *sheets.Client) (harvest.Sink, error) {
	switch config.SinkMode {
	case SinkSheets:
		if sheetsClient == nil {
			return nil, fmt.Errorf("sheets sink requires a sheets client")
		}
		return NewSheetsSink(sheetsClient), nil
	case SinkFile:
		return NewFileSink(sinkfile.NewWriter(config.SinkFile)), nil
	}
	return nil, fmt.Errorf("unknown SINK_MODE: %s", config.SinkMode)
}

func loadVocabulary(ctx context.Context, config *Config, sheetsClient *sheets.Client) (*vocabulary.Vocabulary, error) {
	switch config.VocabSource {
	case VocabBuiltin:
		return vocabulary.Defaults(), nil
	case VocabFile:
		return vocabulary.LoadFile(config.VocabFile)
	case VocabSheets:
		if sheetsClient == nil {
			return nil, fmt.Errorf("sheets vocabulary requires a sheets client")
		}
		return vocabulary.LoadFromSheets(ctx, sheetsClient, vocabulary.DefaultSheetLayout)
	}
	return nil, fmt.Errorf("unknown VOCAB_SOURCE: %s", config.VocabSource)
}
