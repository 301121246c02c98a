package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PhoneNumber is one entry of the historical ledger.
type PhoneNumber struct {
	Number      string    `gorm:"primaryKey;column:number"`
	FirstSeenAt time.Time `gorm:"column:first_seen_at;not null"`
}

func (PhoneNumber) TableName() string {
	return "phone_numbers"
}

// PullRun records the outcome of one completed pull.
type PullRun struct {
	ID           uuid.UUID      `gorm:"primaryKey;column:id;type:uuid"`
	StartedAt    time.Time      `gorm:"column:started_at;not null"`
	FinishedAt   time.Time      `gorm:"column:finished_at;not null"`
	PostsFetched int            `gorm:"column:posts_fetched;not null;default:0"`
	RowsWritten  int            `gorm:"column:rows_written;not null;default:0"`
	SearchCalls  int            `gorm:"column:search_calls;not null;default:0"`
	NewNumbers   pq.StringArray `gorm:"column:new_numbers;type:text[]"`
}

func (PullRun) TableName() string {
	return "pull_runs"
}
