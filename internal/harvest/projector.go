package harvest

import (
	"strings"
	"time"
)

// ResultProjector turns a fetched post into output rows, one per phone number
// that the ledger has not seen before.
type ResultProjector struct {
	matcher          *TermMatcher
	ledger           *DedupLedger
	exclusionPhrases []string
	observer         Observer
}

// NewResultProjector creates a projector. Exclusion phrases are matched
// case-insensitively against the whole post text.
func NewResultProjector(matcher *TermMatcher, ledger *DedupLedger, exclusionPhrases []string, observer Observer) *ResultProjector {
	if observer == nil {
		observer = NopObserver{}
	}
	return &ResultProjector{
		matcher:          matcher,
		ledger:           ledger,
		exclusionPhrases: lowerAll(exclusionPhrases),
		observer:         observer,
	}
}

// Project returns the rows for post, recording each new number in the ledger.
func (p *ResultProjector) Project(post Post) []OutputRow {
	if !HasPhoneNumber(post.Text) {
		p.observer.PostRejected(post.ID, "no phone number")
		return nil
	}
	if phrase, excluded := p.excluded(post.Text); excluded {
		p.observer.PostRejected(post.ID, "exclusion phrase: "+phrase)
		return nil
	}

	var (
		rows      []OutputRow
		locations []string
		resources []string
		details   []string
		matched   bool
	)

	for number := range PhoneNumbers(post.Text) {
		if !p.ledger.RecordIfNew(number, seenAt(post)) {
			p.observer.Duplicate(post.ID, number)
			continue
		}

		if !matched {
			locations, resources = p.matcher.Match(post.Text)
			details = p.matcher.ResourceDetails(post.Text, resources)
			matched = true
		}

		row := OutputRow{
			Locations:   locations,
			Resources:   resources,
			Details:     details,
			PhoneNumber: number,
			PostedAt:    postedAt(post),
			Text:        CleanText(post.Text),
		}
		p.observer.RowProduced(post.ID, row)
		rows = append(rows, row)
	}

	return rows
}

func (p *ResultProjector) excluded(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range p.exclusionPhrases {
		if phrase != "" && strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// CleanText turns escaped newline sequences back into real line breaks.
func CleanText(text string) string {
	return strings.ReplaceAll(text, `\n`, "\n")
}

func seenAt(post Post) time.Time {
	if post.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return post.CreatedAt
}

func postedAt(post Post) string {
	if post.RawCreatedAt != "" {
		return post.RawCreatedAt
	}
	if post.CreatedAt.IsZero() {
		return ""
	}
	return post.CreatedAt.UTC().Format(time.RFC3339)
}
