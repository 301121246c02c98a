package harvest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"
)

// ErrMalformedSnapshot is returned when the historical store hands back data
// that cannot be trusted. The run must stop before anything is written.
var ErrMalformedSnapshot = errors.New("malformed historical snapshot")

// LedgerStore loads and saves the whole historical snapshot at once.
type LedgerStore interface {
	LoadMap(ctx context.Context) (map[string]time.Time, error)
	SaveMap(ctx context.Context, numbers map[string]time.Time) error
}

// DedupLedger tracks phone numbers already discovered. The historical
// snapshot is read-only for the duration of a run; new numbers go to a
// separate delta that is only merged in Persist.
type DedupLedger struct {
	store      LedgerStore
	historical map[string]time.Time
	delta      map[string]time.Time
	loaded     bool
}

// NewDedupLedger creates an empty ledger backed by store.
func NewDedupLedger(store LedgerStore) *DedupLedger {
	return &DedupLedger{
		store:      store,
		historical: make(map[string]time.Time),
		delta:      make(map[string]time.Time),
	}
}

// Load reads the historical snapshot and discards any previous delta.
func (l *DedupLedger) Load(ctx context.Context) error {
	snapshot, err := l.store.LoadMap(ctx)
	if err != nil {
		return fmt.Errorf("failed to load historical phone numbers: %w", err)
	}
	if snapshot == nil {
		snapshot = make(map[string]time.Time)
	}
	for number := range snapshot {
		if number == "" {
			return fmt.Errorf("%w: empty phone number key", ErrMalformedSnapshot)
		}
	}

	l.historical = snapshot
	l.delta = make(map[string]time.Time)
	l.loaded = true
	return nil
}

// Contains reports whether number is known from history or this run.
func (l *DedupLedger) Contains(number string) bool {
	if _, ok := l.historical[number]; ok {
		return true
	}
	_, ok := l.delta[number]
	return ok
}

// RecordIfNew adds number to the run delta and returns true, unless it was
// already known, in which case nothing changes and false is returned.
func (l *DedupLedger) RecordIfNew(number string, seenAt time.Time) bool {
	if l.Contains(number) {
		return false
	}
	l.delta[number] = seenAt
	return true
}

// Persist writes historical ∪ delta back to the store. Historical entries win
// on conflict, which cannot happen through RecordIfNew.
func (l *DedupLedger) Persist(ctx context.Context) error {
	if !l.loaded {
		return errors.New("ledger persisted before it was loaded")
	}

	merged := make(map[string]time.Time, len(l.historical)+len(l.delta))
	maps.Copy(merged, l.delta)
	maps.Copy(merged, l.historical)

	if err := l.store.SaveMap(ctx, merged); err != nil {
		return fmt.Errorf("failed to save phone numbers: %w", err)
	}
	return nil
}

// NewNumbers returns the numbers discovered during this run.
func (l *DedupLedger) NewNumbers() map[string]time.Time {
	return maps.Clone(l.delta)
}

// HistoricalSize is the number of entries loaded from the store.
func (l *DedupLedger) HistoricalSize() int {
	return len(l.historical)
}
