package harvest

import (
	"context"
	"time"
)

// WriterConfig controls sink pacing.
type WriterConfig struct {
	SheetName string
	// Delay precedes every write request.
	Delay time.Duration
	// Cooldown is the pause after a failed write before the same batch is
	// sent again.
	Cooldown time.Duration
	// BatchRows buffers rows added with Add until at least this many are
	// pending. Zero writes on every Add.
	BatchRows int
}

// ThrottledBatchWriter appends rows to the sink under the sink's per-window
// request ceiling. A failed batch is retried unchanged until it succeeds or
// the context ends; rows are never dropped.
type ThrottledBatchWriter struct {
	sink     Sink
	budget   *RequestBudget
	config   WriterConfig
	sleep    SleepFunc
	observer Observer
	pending  []Row
	written  int
}

// NewThrottledBatchWriter creates a writer for config.SheetName.
func NewThrottledBatchWriter(sink Sink, budget *RequestBudget, config WriterConfig, sleep SleepFunc, observer Observer) *ThrottledBatchWriter {
	if sleep == nil {
		sleep = SleepContext
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &ThrottledBatchWriter{
		sink:     sink,
		budget:   budget,
		config:   config,
		sleep:    sleep,
		observer: observer,
	}
}

// Budget exposes the sink request budget.
func (w *ThrottledBatchWriter) Budget() *RequestBudget {
	return w.budget
}

// RowsWritten is the number of rows successfully appended so far.
func (w *ThrottledBatchWriter) RowsWritten() int {
	return w.written
}

// Add buffers rows and writes them once BatchRows are pending.
func (w *ThrottledBatchWriter) Add(ctx context.Context, rows ...Row) error {
	w.pending = append(w.pending, rows...)
	if len(w.pending) == 0 || len(w.pending) < w.config.BatchRows {
		return nil
	}
	return w.Flush(ctx)
}

// Flush writes any buffered rows as one batch.
func (w *ThrottledBatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := w.Append(ctx, w.pending); err != nil {
		return err
	}
	w.pending = nil
	return nil
}

// Append sends rows as a single batched write request.
func (w *ThrottledBatchWriter) Append(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	for {
		if w.budget.Exhausted() {
			w.observer.Pausing(w.budget.Endpoint, w.budget.Window, w.budget.Used())
			if err := w.budget.WaitForWindow(ctx, w.sleep); err != nil {
				return err
			}
		}

		if err := w.sleep(ctx, w.config.Delay); err != nil {
			return err
		}

		// Rejected requests still count against the remote quota.
		err := w.sink.AppendRows(ctx, w.config.SheetName, rows)
		w.budget.Consume()
		if err == nil {
			w.written += len(rows)
			w.observer.BatchWritten(len(rows), w.budget.Used())
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		// The sink does not say why it failed, so every failure is
		// treated as possible throttling.
		w.observer.WriteFailed(len(rows), err)
		w.observer.Pausing(w.budget.Endpoint, w.config.Cooldown, w.budget.Used())
		if err := w.sleep(ctx, w.config.Cooldown); err != nil {
			return err
		}
		if w.config.Cooldown >= w.budget.Window {
			w.budget.used = 0
		}
	}
}
