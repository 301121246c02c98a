package harvest_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RateLimitedFetcher", func() {
	const (
		query  = "-is:retweet pune oxygen"
		window = 15 * time.Minute
		delay  = 200 * time.Millisecond
	)

	var (
		ctx      context.Context
		searcher *scriptedSearcher
		sleeper  *recordingSleeper
		budget   *harvest.RequestBudget
		fetcher  *harvest.RateLimitedFetcher
		handled  []harvest.Post
		collect  func([]harvest.Post)
	)

	BeforeEach(func() {
		ctx = context.Background()
		searcher = newScriptedSearcher()
		sleeper = &recordingSleeper{}
		budget = harvest.NewRequestBudget("search", 450, window)
		fetcher = harvest.NewRateLimitedFetcher(searcher, budget, sleeper.Sleep, delay, nil)
		handled = nil
		collect = func(posts []harvest.Post) { handled = append(handled, posts...) }
	})

	It("follows the cursor until the last page", func() {
		searcher.on(query,
			page("c1", harvest.Post{ID: "1"}),
			page("c2", harvest.Post{ID: "2"}),
			page("", harvest.Post{ID: "3"}),
		)

		Expect(fetcher.FetchAll(ctx, harvest.SearchRequest{Query: query, PageSize: 100}, collect)).To(Succeed())
		Expect(searcher.cursors()).To(Equal([]string{"", "c1", "c2"}))
		Expect(handled).To(HaveLen(3))
		Expect(fetcher.Calls()).To(Equal(3))
		Expect(budget.Used()).To(Equal(3))
		Expect(sleeper.count(delay)).To(Equal(3))
	})

	It("repeats the same page after being throttled", func() {
		for range 5 {
			budget.Consume()
		}
		searcher.on(query,
			page("c1", harvest.Post{ID: "1"}),
			failure(fmt.Errorf("search: %w", harvest.ErrRateLimited)),
			page("", harvest.Post{ID: "2"}),
		)

		Expect(fetcher.FetchAll(ctx, harvest.SearchRequest{Query: query}, collect)).To(Succeed())
		Expect(searcher.cursors()).To(Equal([]string{"", "c1", "c1"}))
		Expect(fetcher.Calls()).To(Equal(2))
		Expect(sleeper.count(window)).To(Equal(1))
		Expect(budget.Used()).To(Equal(1))
		Expect(handled).To(HaveLen(2))
	})

	It("pauses before the next call would reach the ceiling", func() {
		budget = harvest.NewRequestBudget("search", 3, window)
		fetcher = harvest.NewRateLimitedFetcher(searcher, budget, sleeper.Sleep, delay, nil)
		searcher.on(query, page("c1"), page("c2"), page(""))

		Expect(fetcher.FetchAll(ctx, harvest.SearchRequest{Query: query}, collect)).To(Succeed())
		Expect(sleeper.count(window)).To(Equal(1))
		Expect(budget.Used()).To(Equal(1))
		Expect(fetcher.Calls()).To(Equal(3))
	})

	It("reports the failing cursor", func() {
		searcher.on(query,
			page("c1", harvest.Post{ID: "1"}),
			failure(errors.New("boom")),
		)

		err := fetcher.FetchAll(ctx, harvest.SearchRequest{Query: query}, collect)

		var fetchErr *harvest.FetchError
		Expect(errors.As(err, &fetchErr)).To(BeTrue())
		Expect(fetchErr.Query).To(Equal(query))
		Expect(fetchErr.Cursor).To(Equal("c1"))
		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(fetcher.Calls()).To(Equal(1))
	})

	It("starts from the request cursor", func() {
		Expect(fetcher.FetchAll(ctx, harvest.SearchRequest{Query: query, Cursor: "resume"}, collect)).To(Succeed())
		Expect(searcher.cursors()).To(Equal([]string{"resume"}))
	})

	It("stops when the context is done", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := fetcher.FetchAll(cancelled, harvest.SearchRequest{Query: query}, collect)
		Expect(err).To(MatchError(context.Canceled))
		Expect(searcher.requests).To(BeEmpty())
	})
})
