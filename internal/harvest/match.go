package harvest

import (
	"fmt"
	"regexp"
	"strings"
)

// displayExceptions render as fixed literals instead of being title-cased.
var displayExceptions = map[string]string{
	"icu": "ICU",
	"ab+": "AB+",
	"ab-": "AB-",
}

// Capitalize upper-cases the first character of term, except for a closed set
// of acronyms and blood groups that render as fixed labels.
func Capitalize(term string) string {
	if literal, ok := displayExceptions[strings.ToLower(term)]; ok {
		return literal
	}
	if term == "" {
		return term
	}
	return strings.ToUpper(term[:1]) + term[1:]
}

// DetailPattern is a compiled resource sub-detail, e.g. a blood group under
// "plasma". Label is what ends up in the output row.
type DetailPattern struct {
	Pattern string
	Label   string
	re      *regexp.Regexp
}

// TermMatcher does case-insensitive substring matching of vocabulary terms
// against post text. Terms can match inside longer words.
type TermMatcher struct {
	locations []string
	resources []string
	details   map[string][]DetailPattern
}

// NewTermMatcher compiles the detail vocabulary. Keys of details are resource
// terms, values are regular expressions tested case-insensitively.
func NewTermMatcher(locations, resources []string, details map[string][]string) (*TermMatcher, error) {
	m := &TermMatcher{
		locations: lowerAll(locations),
		resources: lowerAll(resources),
		details:   make(map[string][]DetailPattern, len(details)),
	}

	for resource, patterns := range details {
		compiled := make([]DetailPattern, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("invalid detail pattern %q for %q: %w", p, resource, err)
			}
			compiled = append(compiled, DetailPattern{
				Pattern: p,
				Label:   Capitalize(detailLabel(p)),
				re:      re,
			})
		}
		m.details[strings.ToLower(resource)] = compiled
	}

	return m, nil
}

// Match returns the location and resource terms contained in text, in
// vocabulary order.
func (m *TermMatcher) Match(text string) (locations, resources []string) {
	lower := strings.ToLower(text)
	return containedTerms(lower, m.locations), containedTerms(lower, m.resources)
}

// ResourceDetails returns one label per detail pattern that matches text, for
// every matched resource that has a detail vocabulary.
func (m *TermMatcher) ResourceDetails(text string, matchedResources []string) []string {
	var details []string
	for _, resource := range matchedResources {
		for _, d := range m.details[strings.ToLower(resource)] {
			if d.re.MatchString(text) {
				details = append(details, d.Label)
			}
		}
	}
	return details
}

// detailLabel strips a leading character class such as `[^a-z]` and any
// escaping, so `[^a-z]ab\+` becomes `ab+`.
func detailLabel(pattern string) string {
	if strings.HasPrefix(pattern, "[") {
		if end := strings.Index(pattern, "]"); end >= 0 {
			pattern = pattern[end+1:]
		}
	}
	return strings.ReplaceAll(pattern, `\`, "")
}

func containedTerms(lowerText string, terms []string) []string {
	var matched []string
	for _, term := range terms {
		if term != "" && strings.Contains(lowerText, term) {
			matched = append(matched, term)
		}
	}
	return matched
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(strings.Trim(t, `"`))
	}
	return out
}
