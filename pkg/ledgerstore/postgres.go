package ledgerstore

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/resource-pull/pkg/db/models"
)

const postgresBatchSize = 500

// Postgres keeps the snapshot in the phone_numbers table and run summaries
// in pull_runs.
type Postgres struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewPostgres(db *gorm.DB, logger *logrus.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) LoadMap(ctx context.Context) (map[string]time.Time, error) {
	var rows []models.PhoneNumber
	if err := p.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load phone numbers: %w", err)
	}

	numbers := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		if row.Number == "" {
			return nil, fmt.Errorf("%w: empty phone number key", ErrMalformedSnapshot)
		}
		numbers[row.Number] = row.FirstSeenAt
	}

	p.logger.WithField("count", len(numbers)).Debug("Loaded phone numbers")
	return numbers, nil
}

// SaveMap inserts every number in one transaction. Rows already present keep
// their stored first-seen time.
func (p *Postgres) SaveMap(ctx context.Context, numbers map[string]time.Time) error {
	if len(numbers) == 0 {
		return nil
	}

	rows := make([]models.PhoneNumber, 0, len(numbers))
	for number, seenAt := range numbers {
		rows = append(rows, models.PhoneNumber{Number: number, FirstSeenAt: seenAt.UTC()})
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}},
			DoNothing: true,
		}).CreateInBatches(rows, postgresBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save phone numbers: %w", err)
	}

	p.logger.WithField("count", len(rows)).Debug("Saved phone numbers")
	return nil
}

// SaveRun stores a run summary.
func (p *Postgres) SaveRun(ctx context.Context, run *models.PullRun) error {
	if err := p.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save pull run %s: %w", run.ID, err)
	}
	return nil
}
