package harvest

import (
	"context"
	"fmt"
	"time"
)

// RunSummary describes one completed pull.
type RunSummary struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	PostsFetched int
	RowsWritten  int
	SearchCalls  int
	NewNumbers   map[string]time.Time
}

// RunRecorder stores run summaries. It is optional.
type RunRecorder interface {
	RecordRun(ctx context.Context, summary RunSummary) error
}

// PullOrchestrator sequences one run: load ledger, crawl, project, flush the
// writer, persist the ledger and append the completion marker.
type PullOrchestrator struct {
	RunID string

	ledger    *DedupLedger
	planner   *QueryPlanner
	projector *ResultProjector
	writer    *ThrottledBatchWriter
	recorder  RunRecorder
	now       func() time.Time
}

// NewPullOrchestrator wires the run components. recorder may be nil.
func NewPullOrchestrator(runID string, ledger *DedupLedger, planner *QueryPlanner, projector *ResultProjector, writer *ThrottledBatchWriter, recorder RunRecorder) *PullOrchestrator {
	return &PullOrchestrator{
		RunID:     runID,
		ledger:    ledger,
		planner:   planner,
		projector: projector,
		writer:    writer,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Run executes the pull. Nothing is written to the sink or the historical
// store if loading the ledger or crawling fails.
func (o *PullOrchestrator) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     o.RunID,
		StartedAt: o.now().UTC(),
	}

	if err := o.ledger.Load(ctx); err != nil {
		return nil, err
	}

	posts, err := o.planner.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect posts: %w", err)
	}
	summary.PostsFetched = len(posts)

	for _, post := range posts {
		projected := o.projector.Project(post)
		if len(projected) == 0 {
			continue
		}

		rows := make([]Row, len(projected))
		for i, r := range projected {
			rows[i] = r.Row()
		}
		if err := o.writer.Add(ctx, rows...); err != nil {
			return nil, fmt.Errorf("failed to write rows for post %s: %w", post.ID, err)
		}
	}

	// Buffered rows must reach the sink before their numbers enter history.
	if err := o.writer.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := o.ledger.Persist(ctx); err != nil {
		return nil, err
	}
	if err := o.writer.Append(ctx, []Row{CompletionMarker()}); err != nil {
		return nil, fmt.Errorf("failed to append completion marker: %w", err)
	}

	summary.FinishedAt = o.now().UTC()
	summary.RowsWritten = o.writer.RowsWritten() - 1
	summary.SearchCalls = o.planner.fetcher.Calls()
	summary.NewNumbers = o.ledger.NewNumbers()

	if o.recorder != nil {
		if err := o.recorder.RecordRun(ctx, *summary); err != nil {
			return summary, fmt.Errorf("failed to record run summary: %w", err)
		}
	}

	return summary, nil
}
