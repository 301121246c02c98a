// Package vocabulary supplies the search and matching terms for a pull:
// built-in defaults, a YAML file, or columns of a spreadsheet.
package vocabulary

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the full term set for one run.
type Vocabulary struct {
	Locations     []string `yaml:"locations"`
	Resources     []string `yaml:"resources"`
	PhoneKeywords []string `yaml:"phone_keywords"`
	// ExclusionTerms are negated inside the search query.
	ExclusionTerms []string `yaml:"exclusion_terms"`
	// ExclusionPhrases drop a post after it is fetched.
	ExclusionPhrases []string `yaml:"exclusion_phrases"`
	// ResourceDetails maps a resource to regular expressions whose matches
	// become the details cell.
	ResourceDetails map[string][]string `yaml:"resource_details"`
}

// Defaults returns a fresh copy of the built-in vocabulary.
func Defaults() *Vocabulary {
	return &Vocabulary{
		Locations: []string{
			"allahabad", "prayagraj", "pune", "nashik", "nasik", "nagpur",
			"mumbai", "bombay", "chennai", "thane", "delhi", "gurgaon",
			"ghaziabad", "bengaluru", "bangalore", "lucknow", "varanasi",
			"kanpur", "indore", "ahmedabad", "amdavad", "patna", "bhopal",
			"hyderabad", "vijaywada", "kolkata",
		},
		Resources: []string{
			"ambulance", "home quarantine", "hospital", "beds", "ventilator",
			"icu", "tocilizumab", "fabiflu", "favipiravir", "oxygen", "plasma",
			"tiffin",
		},
		PhoneKeywords: []string{
			"contact", "verified", "number", "numbers", "whatsapp", "whats app",
			"helpline", "call",
		},
		ExclusionTerms: []string{
			"need", "needed", "needs", "required", "require", "patient",
			"request for", "urgent help", "please help", "plz help", "pls help",
			"bot link", "requirement", "requirements", "relative", "symptoms",
			"help please", "can you help", "admitted to", "condition",
		},
		ExclusionPhrases: []string{
			"urgently looking", "needs a plasma donor", "any potential",
			"looking for a", "my close friend", "currently hospitalised",
			"help with an", "#urgenthelp",
		},
		ResourceDetails: map[string][]string{
			"plasma": {
				`[^a-z]a\+`, `[^a-z]a\-`, `[^a-z]b\+`, `[^a-z]b\-`,
				`[^a-z]o\+`, `[^a-z]o\-`, `[^a-z]ab\+`, `[^a-z]ab\-`,
			},
			"oxygen": {"can", "cylinder", "concentrator", "refill"},
		},
	}
}

// LoadFile reads a YAML vocabulary. Sections left out of the file keep their
// built-in defaults.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var fromFile Vocabulary
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	vocab := Defaults().Merge(&fromFile)
	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary file %s: %w", path, err)
	}
	return vocab, nil
}

// Merge returns v with every non-empty section of other replacing its own.
func (v *Vocabulary) Merge(other *Vocabulary) *Vocabulary {
	merged := v.Clone()
	if len(other.Locations) > 0 {
		merged.Locations = slices.Clone(other.Locations)
	}
	if len(other.Resources) > 0 {
		merged.Resources = slices.Clone(other.Resources)
	}
	if len(other.PhoneKeywords) > 0 {
		merged.PhoneKeywords = slices.Clone(other.PhoneKeywords)
	}
	if len(other.ExclusionTerms) > 0 {
		merged.ExclusionTerms = slices.Clone(other.ExclusionTerms)
	}
	if len(other.ExclusionPhrases) > 0 {
		merged.ExclusionPhrases = slices.Clone(other.ExclusionPhrases)
	}
	if len(other.ResourceDetails) > 0 {
		merged.ResourceDetails = cloneDetails(other.ResourceDetails)
	}
	return merged
}

// Clone returns a deep copy.
func (v *Vocabulary) Clone() *Vocabulary {
	return &Vocabulary{
		Locations:        slices.Clone(v.Locations),
		Resources:        slices.Clone(v.Resources),
		PhoneKeywords:    slices.Clone(v.PhoneKeywords),
		ExclusionTerms:   slices.Clone(v.ExclusionTerms),
		ExclusionPhrases: slices.Clone(v.ExclusionPhrases),
		ResourceDetails:  cloneDetails(v.ResourceDetails),
	}
}

// Validate requires locations and resources, rejects blank terms and checks
// that every detail pattern compiles.
func (v *Vocabulary) Validate() error {
	if len(v.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	if len(v.Resources) == 0 {
		return fmt.Errorf("at least one resource is required")
	}

	sections := map[string][]string{
		"locations":         v.Locations,
		"resources":         v.Resources,
		"phone_keywords":    v.PhoneKeywords,
		"exclusion_terms":   v.ExclusionTerms,
		"exclusion_phrases": v.ExclusionPhrases,
	}
	for _, name := range slices.Sorted(maps.Keys(sections)) {
		for i, term := range sections[name] {
			if strings.TrimSpace(strings.Trim(term, `"`)) == "" {
				return fmt.Errorf("%s[%d] is blank", name, i)
			}
		}
	}

	for resource, patterns := range v.ResourceDetails {
		for _, pattern := range patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("resource_details[%s]: %w", resource, err)
			}
		}
	}
	return nil
}

func cloneDetails(details map[string][]string) map[string][]string {
	if details == nil {
		return nil
	}
	cloned := make(map[string][]string, len(details))
	for k, v := range details {
		cloned[k] = slices.Clone(v)
	}
	return cloned
}
