package twitter

import "fmt"

// Tweet represents the tweet fields requested by search.
type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
	AuthorID  string `json:"author_id,omitempty"`
}

// TweetResponse represents the Twitter API response format
type TweetResponse struct {
	Data   []Tweet        `json:"data"`
	Errors []TwitterError `json:"errors,omitempty"`
	Meta   *Meta          `json:"meta,omitempty"`
}

// TwitterError represents a partial error inside a 2xx response
type TwitterError struct {
	Code    int    `json:"code"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

func (e *TwitterError) Error() string {
	return fmt.Sprintf("Twitter API error %d: %s", e.Code, e.Message)
}

// Meta contains information about the response
type Meta struct {
	ResultCount int    `json:"result_count,omitempty"`
	NextToken   string `json:"next_token,omitempty"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
}
