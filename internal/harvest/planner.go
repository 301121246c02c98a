package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// QueryTermSets are the vocabularies for one run.
type QueryTermSets struct {
	Locations     []string
	Resources     []string
	PhoneKeywords []string
	// ExclusionTerms are negated inside the query string itself.
	ExclusionTerms []string
	// ExclusionPhrases reject posts after they are fetched.
	ExclusionPhrases []string
	// ResourceDetails maps a resource term to detail regular expressions.
	ResourceDetails map[string][]string
}

// PlannerConfig controls how the query space is partitioned and walked.
type PlannerConfig struct {
	MaxQueryLength     int
	PageSize           int
	TimeRange          time.Duration
	SplitPhoneKeywords bool
	GroupResources     bool
	FetchCooldown      time.Duration
	AbortOnQueryError  bool
}

// Combination is one concrete query of the crawl.
type Combination struct {
	Locations     []string
	Resources     []string
	PhoneKeywords []string
	Query         string
}

// QueryPlanner enumerates term combinations and drives the fetcher through
// each of them, keeping only the first copy of every post.
type QueryPlanner struct {
	terms    QueryTermSets
	config   PlannerConfig
	fetcher  *RateLimitedFetcher
	sleep    SleepFunc
	observer Observer
	now      func() time.Time
}

// NewQueryPlanner creates a planner. sleep is used for the cooldown after a
// transient fetch failure.
func NewQueryPlanner(terms QueryTermSets, config PlannerConfig, fetcher *RateLimitedFetcher, sleep SleepFunc, observer Observer) *QueryPlanner {
	if sleep == nil {
		sleep = SleepContext
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &QueryPlanner{
		terms:    terms,
		config:   config,
		fetcher:  fetcher,
		sleep:    sleep,
		observer: observer,
		now:      time.Now,
	}
}

// Plan returns every combination in crawl order: location groups in the
// outer loop, resources in the inner loop, then phone keywords.
func (p *QueryPlanner) Plan() ([]Combination, error) {
	if len(p.terms.Locations) == 0 || len(p.terms.Resources) == 0 {
		return nil, errors.New("location and resource vocabularies must not be empty")
	}

	phoneGroups := [][]string{p.terms.PhoneKeywords}
	if p.config.SplitPhoneKeywords && len(p.terms.PhoneKeywords) > 0 {
		phoneGroups = singletons(p.terms.PhoneKeywords)
	}

	// Two separators join the location and resource fragments to the rest.
	fixed := len(buildQuery("", "", p.terms.ExclusionTerms, longestFragment(phoneGroups))) + 2
	remaining := p.config.MaxQueryLength - fixed

	resourceGroups := singletons(p.terms.Resources)
	if p.config.GroupResources {
		resourceGroups = ChunkTerms(p.terms.Resources, remaining/2)
	}

	locationBudget := remaining - len(longestFragment(resourceGroups))
	if locationBudget <= 0 {
		return nil, fmt.Errorf("query length limit %d leaves no room for locations", p.config.MaxQueryLength)
	}
	locationGroups := ChunkTerms(p.terms.Locations, locationBudget)

	var combos []Combination
	for _, locations := range locationGroups {
		for _, resources := range resourceGroups {
			for _, phones := range phoneGroups {
				combos = append(combos, Combination{
					Locations:     locations,
					Resources:     resources,
					PhoneKeywords: phones,
					Query: buildQuery(
						OrGroup(locations),
						OrGroup(resources),
						p.terms.ExclusionTerms,
						OrGroup(phones),
					),
				})
			}
		}
	}
	return combos, nil
}

// Collect runs every planned combination to exhaustion and returns the
// unique posts in discovery order.
func (p *QueryPlanner) Collect(ctx context.Context) ([]Post, error) {
	combos, err := p.Plan()
	if err != nil {
		return nil, err
	}

	startTime := p.now().Add(-p.config.TimeRange).UTC().Truncate(time.Second)
	seen := make(map[string]struct{})
	var posts []Post

	collect := func(page []Post) {
		for _, post := range page {
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}
			posts = append(posts, post)
		}
	}

	for _, combo := range combos {
		req := SearchRequest{
			Query:     combo.Query,
			StartTime: startTime,
			PageSize:  p.config.PageSize,
		}
		if err := p.runCombination(ctx, req, collect); err != nil {
			return posts, err
		}
	}

	return posts, nil
}

func (p *QueryPlanner) runCombination(ctx context.Context, req SearchRequest, collect func([]Post)) error {
	for {
		err := p.fetcher.FetchAll(ctx, req, collect)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			return err
		}

		if IsTransient(err) {
			p.observer.QueryFailed(req.Query, err, true)
			if err := p.sleep(ctx, p.config.FetchCooldown); err != nil {
				return err
			}
			req.Cursor = fetchErr.Cursor
			continue
		}

		p.observer.QueryFailed(req.Query, err, false)
		if p.config.AbortOnQueryError {
			return err
		}
		return nil
	}
}

// ChunkTerms splits terms into consecutive groups whose OrGroup fragment is
// at most budget characters. A term too long to fit on its own still gets a
// group of its own.
func ChunkTerms(terms []string, budget int) [][]string {
	var chunks [][]string
	var current []string

	for _, term := range terms {
		candidate := append(append([]string(nil), current...), term)
		if len(current) > 0 && len(OrGroup(candidate)) > budget {
			chunks = append(chunks, current)
			current = []string{term}
			continue
		}
		current = candidate
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// QuoteTerm wraps multiword terms in double quotes.
func QuoteTerm(term string) string {
	term = strings.Trim(term, `"`)
	if strings.ContainsAny(term, " \t") {
		return `"` + term + `"`
	}
	return term
}

// OrGroup renders terms as a single query fragment, parenthesised when there
// is more than one.
func OrGroup(terms []string) string {
	switch len(terms) {
	case 0:
		return ""
	case 1:
		return QuoteTerm(terms[0])
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = QuoteTerm(t)
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}

func buildQuery(locations, resources string, exclusions []string, phones string) string {
	parts := []string{"-is:retweet"}
	for _, fragment := range []string{locations, resources} {
		if fragment != "" {
			parts = append(parts, fragment)
		}
	}
	for _, term := range exclusions {
		parts = append(parts, "-"+QuoteTerm(term))
	}
	if phones != "" {
		parts = append(parts, phones)
	}
	return strings.Join(parts, " ")
}

func singletons(terms []string) [][]string {
	groups := make([][]string, len(terms))
	for i, t := range terms {
		groups[i] = []string{t}
	}
	return groups
}

func longestFragment(groups [][]string) string {
	var longest string
	for _, g := range groups {
		if f := OrGroup(g); len(f) > len(longest) {
			longest = f
		}
	}
	return longest
}
