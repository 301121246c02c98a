package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FetchError is a non-throttling failure while paging through one query.
// Cursor is the page that failed, so the caller can resume from it.
type FetchError struct {
	Query  string
	Cursor string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RateLimitedFetcher pages through a single query while keeping the search
// endpoint's request budget. Throttled responses pause a full window and the
// same page is requested again.
type RateLimitedFetcher struct {
	searcher Searcher
	budget   *RequestBudget
	sleep    SleepFunc
	delay    time.Duration
	observer Observer
	calls    int
}

// NewRateLimitedFetcher creates a fetcher. delay is inserted after every
// successful call regardless of the remaining budget.
func NewRateLimitedFetcher(searcher Searcher, budget *RequestBudget, sleep SleepFunc, delay time.Duration, observer Observer) *RateLimitedFetcher {
	if sleep == nil {
		sleep = SleepContext
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &RateLimitedFetcher{
		searcher: searcher,
		budget:   budget,
		sleep:    sleep,
		delay:    delay,
		observer: observer,
	}
}

// Budget exposes the search request budget.
func (f *RateLimitedFetcher) Budget() *RequestBudget {
	return f.budget
}

// Calls is the number of successful search calls made by this fetcher.
func (f *RateLimitedFetcher) Calls() int {
	return f.calls
}

// FetchAll requests req and every following page until the cursor runs out,
// passing each page's posts to handle. Paging starts at req.Cursor.
func (f *RateLimitedFetcher) FetchAll(ctx context.Context, req SearchRequest, handle func([]Post)) error {
	page := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := f.searcher.Search(ctx, req)
		if errors.Is(err, ErrRateLimited) {
			f.observer.Throttled(f.budget.Endpoint, f.budget.Used())
			if err := f.pause(ctx); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &FetchError{Query: req.Query, Cursor: req.Cursor, Err: err}
		}

		f.budget.Consume()
		f.calls++
		page++

		f.observer.PageFetched(req.Query, page, len(result.Posts), f.budget.Used())
		if page == 1 && len(result.Posts) == 0 && result.NextCursor == "" {
			f.observer.NoResults(req.Query)
		}
		handle(result.Posts)

		if err := f.sleep(ctx, f.delay); err != nil {
			return err
		}
		if f.budget.NextWouldCross() {
			if err := f.pause(ctx); err != nil {
				return err
			}
		}

		if result.NextCursor == "" {
			return nil
		}
		req.Cursor = result.NextCursor
	}
}

func (f *RateLimitedFetcher) pause(ctx context.Context) error {
	f.observer.Pausing(f.budget.Endpoint, f.budget.Window, f.budget.Used())
	return f.budget.WaitForWindow(ctx, f.sleep)
}
