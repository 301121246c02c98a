package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// StartTimeFormat is the layout the search endpoint accepts for start_time.
const StartTimeFormat = "2006-01-02T15:04:05Z"

// SearchParams holds the parameters for a recent search request
type SearchParams struct {
	Query      string
	StartTime  time.Time
	MaxResults int
	NextToken  string
}

// SearchRecent fetches one page of tweets from the last seven days matching
// params.Query. A 429 response returns ErrRateLimited.
// Rate limit: 450/15m (app), 180/15m (user)
func (c *TwitterClient) SearchRecent(ctx context.Context, params SearchParams) (*TweetResponse, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	log := c.logger.WithFields(logrus.Fields{
		"method": "SearchRecent",
		"query":  params.Query,
	})

	query := url.Values{}
	query.Set("query", params.Query)
	query.Set("tweet.fields", strings.Join(c.config.TweetFields, ","))
	if !params.StartTime.IsZero() {
		query.Set("start_time", params.StartTime.UTC().Format(StartTimeFormat))
	}
	if params.MaxResults > 0 {
		query.Set("max_results", strconv.Itoa(params.MaxResults))
	}
	if params.NextToken != "" {
		query.Set("next_token", params.NextToken)
	}

	log.WithField("next_token", params.NextToken).Debug("Searching recent tweets")

	var tweetResp TweetResponse
	if err := c.getJSON(ctx, c.config.SearchEndpoint, query, &tweetResp); err != nil {
		return nil, err
	}
	if tweetResp.Meta == nil {
		tweetResp.Meta = &Meta{}
	}

	log.WithFields(logrus.Fields{
		"result_count": tweetResp.Meta.ResultCount,
		"has_next":     tweetResp.Meta.NextToken != "",
	}).Debug("Received search response")

	return &tweetResp, nil
}
