package twitter_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/lisanmuaddib/resource-pull/pkg/interfaces/twitter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("SearchRecent", func() {
	var (
		server   *httptest.Server
		client   *twitter.TwitterClient
		handler  http.HandlerFunc
		requests []*http.Request
		ctx      context.Context
		cancel   context.CancelFunc
	)

	BeforeEach(func() {
		requests = nil
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, `{"data":[],"meta":{"result_count":0}}`)
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests = append(requests, r)
			handler(w, r)
		}))

		logger := logrus.New()
		logger.SetOutput(io.Discard)

		config := &twitter.TwitterConfig{
			BearerToken: "test-token",
			BaseURL:     server.URL,
			RateLimit:   450,
			RateWindow:  15,
			Logger:      logger,
		}

		var err error
		client, err = twitter.NewTwitterClient(config, twitter.WithLimiter(nil))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	})

	AfterEach(func() {
		cancel()
		server.Close()
	})

	It("sends the search parameters and bearer token", func() {
		start := time.Date(2021, 5, 1, 10, 30, 0, 0, time.UTC)

		_, err := client.SearchRecent(ctx, twitter.SearchParams{
			Query:      `-is:retweet pune oxygen`,
			StartTime:  start,
			MaxResults: 100,
			NextToken:  "abc",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(requests).To(HaveLen(1))

		req := requests[0]
		Expect(req.URL.Path).To(Equal("/tweets/search/recent"))
		Expect(req.Header.Get("Authorization")).To(Equal("Bearer test-token"))

		q := req.URL.Query()
		Expect(q.Get("query")).To(Equal("-is:retweet pune oxygen"))
		Expect(q.Get("start_time")).To(Equal("2021-05-01T10:30:00Z"))
		Expect(q.Get("max_results")).To(Equal("100"))
		Expect(q.Get("next_token")).To(Equal("abc"))
		Expect(q.Get("tweet.fields")).To(Equal("id,text,created_at"))
	})

	It("omits an empty cursor", func() {
		_, err := client.SearchRecent(ctx, twitter.SearchParams{Query: "pune"})
		Expect(err).NotTo(HaveOccurred())
		Expect(requests[0].URL.Query()).NotTo(HaveKey("next_token"))
	})

	It("decodes tweets and the next token", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{
				"data": [
					{"id": "1", "text": "oxygen in pune call 9876543210", "created_at": "2021-05-01T10:31:00.000Z"},
					{"id": "2", "text": "beds available"}
				],
				"meta": {"result_count": 2, "next_token": "next-page"}
			}`)
		}

		resp, err := client.SearchRecent(ctx, twitter.SearchParams{Query: "pune"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Data).To(HaveLen(2))
		Expect(resp.Data[0].ID).To(Equal("1"))
		Expect(resp.Data[0].CreatedAt).To(Equal("2021-05-01T10:31:00.000Z"))
		Expect(resp.Meta.NextToken).To(Equal("next-page"))
		Expect(resp.Meta.ResultCount).To(Equal(2))
	})

	It("returns an empty meta when the API omits it", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		}

		resp, err := client.SearchRecent(ctx, twitter.SearchParams{Query: "pune"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Meta).NotTo(BeNil())
		Expect(resp.Meta.NextToken).To(BeEmpty())
	})

	It("maps 429 to ErrRateLimited", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"title":"Too Many Requests"}`)
		}

		_, err := client.SearchRecent(ctx, twitter.SearchParams{Query: "pune"})
		Expect(errors.Is(err, twitter.ErrRateLimited)).To(BeTrue())
	})

	It("returns a transient APIError for server errors", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"title":"Service Unavailable","detail":"try later"}`)
		}

		_, err := client.SearchRecent(ctx, twitter.SearchParams{Query: "pune"})

		var apiErr *twitter.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.StatusCode).To(Equal(http.StatusServiceUnavailable))
		Expect(apiErr.Message).To(Equal("try later"))
		Expect(apiErr.Transient()).To(BeTrue())
	})

	It("returns a permanent APIError for a bad query", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"errors":[{"code":400,"message":"query too long"}]}`)
		}

		_, err := client.SearchRecent(ctx, twitter.SearchParams{Query: "pune"})

		var apiErr *twitter.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Code).To(Equal(400))
		Expect(apiErr.Message).To(Equal("query too long"))
		Expect(apiErr.Transient()).To(BeFalse())
	})

	It("rejects an empty query without calling the API", func() {
		_, err := client.SearchRecent(ctx, twitter.SearchParams{Query: "  "})
		Expect(err).To(HaveOccurred())
		Expect(requests).To(BeEmpty())
	})

	It("honours a custom base URL option", func() {
		other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"data":[{"id":"9","text":"x"}],"meta":{"result_count":1}}`)
		}))
		defer other.Close()

		logger := logrus.New()
		logger.SetOutput(io.Discard)
		c, err := twitter.NewTwitterClient(&twitter.TwitterConfig{
			BearerToken: "t",
			RateLimit:   1,
			RateWindow:  1,
			Logger:      logger,
		}, twitter.WithBaseURL(other.URL))
		Expect(err).NotTo(HaveOccurred())

		resp, err := c.SearchRecent(ctx, twitter.SearchParams{Query: "pune"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Data[0].ID).To(Equal("9"))
		Expect(requests).To(BeEmpty())
	})
})

var _ = Describe("SearchRecent against the live API", func() {
	It("returns recent tweets", func() {
		if os.Getenv("INTEGRATION_TESTS") != "true" {
			Skip("Skipping integration test")
		}

		config, err := twitter.NewTwitterConfig()
		Expect(err).NotTo(HaveOccurred())
		client, err := twitter.NewTwitterClient(config)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := client.SearchRecent(ctx, twitter.SearchParams{
			Query:      "-is:retweet oxygen (contact OR verified)",
			StartTime:  time.Now().Add(-2 * time.Hour),
			MaxResults: 10,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Meta).NotTo(BeNil())
	})
})
