package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	"github.com/lisanmuaddib/resource-pull/pkg/db/models"
	"github.com/lisanmuaddib/resource-pull/pkg/interfaces/sheets"
	"github.com/lisanmuaddib/resource-pull/pkg/interfaces/twitter"
	"github.com/lisanmuaddib/resource-pull/pkg/ledgerstore"
	"github.com/lisanmuaddib/resource-pull/pkg/sinkfile"
)

// RecentSearcher is the part of the twitter client the crawl uses.
type RecentSearcher interface {
	SearchRecent(ctx context.Context, params twitter.SearchParams) (*twitter.TweetResponse, error)
}

// TwitterSearcher serves harvest searches from the recent search endpoint.
type TwitterSearcher struct {
	client RecentSearcher
}

func NewTwitterSearcher(client RecentSearcher) *TwitterSearcher {
	return &TwitterSearcher{client: client}
}

func (s *TwitterSearcher) Search(ctx context.Context, req harvest.SearchRequest) (*harvest.Page, error) {
	resp, err := s.client.SearchRecent(ctx, twitter.SearchParams{
		Query:      req.Query,
		StartTime:  req.StartTime,
		MaxResults: req.PageSize,
		NextToken:  req.Cursor,
	})
	if errors.Is(err, twitter.ErrRateLimited) {
		return nil, fmt.Errorf("%w: %v", harvest.ErrRateLimited, err)
	}
	if err != nil {
		return nil, err
	}

	page := &harvest.Page{Posts: make([]harvest.Post, 0, len(resp.Data))}
	if resp.Meta != nil {
		page.NextCursor = resp.Meta.NextToken
	}
	for _, tweet := range resp.Data {
		post := harvest.Post{ID: tweet.ID, Text: tweet.Text, RawCreatedAt: tweet.CreatedAt}
		if createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
			post.CreatedAt = createdAt.UTC()
		}
		page.Posts = append(page.Posts, post)
	}
	return page, nil
}

// RowAppender is the shape shared by the sheets client.
type RowAppender interface {
	AppendRows(ctx context.Context, sheetTitle string, rows []sheets.Row) error
}

// SheetsSink writes harvest rows to a spreadsheet.
type SheetsSink struct {
	client RowAppender
}

func NewSheetsSink(client RowAppender) *SheetsSink {
	return &SheetsSink{client: client}
}

func (s *SheetsSink) AppendRows(ctx context.Context, sheetName string, rows []harvest.Row) error {
	converted := make([]sheets.Row, len(rows))
	for i, row := range rows {
		converted[i] = sheets.Row{Cells: row.Cells, Bold: row.Bold}
	}
	return s.client.AppendRows(ctx, sheetName, converted)
}

// FileSink writes harvest rows as NDJSON.
type FileSink struct {
	writer *sinkfile.Writer
}

func NewFileSink(writer *sinkfile.Writer) *FileSink {
	return &FileSink{writer: writer}
}

func (s *FileSink) AppendRows(ctx context.Context, sheetName string, rows []harvest.Row) error {
	converted := make([]sinkfile.Row, len(rows))
	for i, row := range rows {
		converted[i] = sinkfile.Row{Cells: row.Cells, Bold: row.Bold}
	}
	return s.writer.AppendRows(ctx, sheetName, converted)
}

// snapshotStore lifts store-level malformed data errors into
// harvest.ErrMalformedSnapshot so the run aborts as a data inconsistency.
type snapshotStore struct {
	harvest.LedgerStore
}

func (s snapshotStore) LoadMap(ctx context.Context) (map[string]time.Time, error) {
	numbers, err := s.LedgerStore.LoadMap(ctx)
	if errors.Is(err, ledgerstore.ErrMalformedSnapshot) {
		return nil, fmt.Errorf("%w: %v", harvest.ErrMalformedSnapshot, err)
	}
	return numbers, err
}

// RunSaver stores pull_runs rows.
type RunSaver interface {
	SaveRun(ctx context.Context, run *models.PullRun) error
}

// PostgresRecorder records run summaries in pull_runs.
type PostgresRecorder struct {
	saver RunSaver
}

func NewPostgresRecorder(saver RunSaver) *PostgresRecorder {
	return &PostgresRecorder{saver: saver}
}

func (r *PostgresRecorder) RecordRun(ctx context.Context, summary harvest.RunSummary) error {
	id, err := uuid.Parse(summary.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", summary.RunID, err)
	}

	return r.saver.SaveRun(ctx, &models.PullRun{
		ID:           id,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
		PostsFetched: summary.PostsFetched,
		RowsWritten:  summary.RowsWritten,
		SearchCalls:  summary.SearchCalls,
		NewNumbers:   pq.StringArray(slices.Sorted(maps.Keys(summary.NewNumbers))),
	})
}
