// Package harvest crawls a rate-limited search API for posts that advertise
// phone numbers, drops numbers that were already found in earlier runs and
// appends the new ones to a tabular sink.
package harvest

import (
	"context"
	"strings"
	"time"
)

// Post is a single search result.
type Post struct {
	ID        string
	Text      string
	CreatedAt time.Time
	// RawCreatedAt is the timestamp exactly as the search API returned it.
	RawCreatedAt string
}

// SearchRequest is one page request against the search collaborator.
type SearchRequest struct {
	Query     string
	StartTime time.Time
	PageSize  int
	Cursor    string
}

// Page is one page of search results. An empty NextCursor marks the last page.
type Page struct {
	Posts      []Post
	NextCursor string
}

// Searcher is the search collaborator. Implementations return an error
// wrapping ErrRateLimited when the remote window is exhausted.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*Page, error)
}

// Row is one sink row. Bold is only used for marker rows.
type Row struct {
	Cells []string
	Bold  bool
}

// Sink is the append-only tabular output.
type Sink interface {
	AppendRows(ctx context.Context, sheetName string, rows []Row) error
}

// OutputRow is a newly discovered phone number with the context it was
// found in.
type OutputRow struct {
	Locations   []string
	Resources   []string
	Details     []string
	PhoneNumber string
	PostedAt    string
	Text        string
}

// Row renders the display cells in sink column order.
func (r OutputRow) Row() Row {
	return Row{
		Cells: []string{
			joinDisplay(r.Locations),
			joinDisplay(r.Resources),
			strings.Join(r.Details, ", "),
			r.PhoneNumber,
			r.PostedAt,
			r.Text,
		},
	}
}

// CompletionMarker is the row appended once a run has finished.
func CompletionMarker() Row {
	const text = "script completed"
	return Row{
		Cells: []string{text, text, text, text, text, text},
		Bold:  true,
	}
}

func joinDisplay(terms []string) string {
	display := make([]string, len(terms))
	for i, t := range terms {
		display[i] = Capitalize(t)
	}
	return strings.Join(display, ", ")
}
