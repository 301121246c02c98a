package harvest

import (
	"iter"
	"regexp"
	"slices"
	"strings"
)

// phoneNumberPattern matches runs of at least ten digits that may be broken
// up by spaces, tabs or hyphens. It over-matches on purpose.
var phoneNumberPattern = regexp.MustCompile(`([\t -]*?[0-9][\t -]*?){10,}`)

const (
	minPhoneDigits = 10

	// Matches longer than this that still contain spaces are treated as
	// several numbers written back to back.
	concatenatedMatchLength = 20
)

// HasPhoneNumber reports whether text contains anything phone shaped.
func HasPhoneNumber(text string) bool {
	return phoneNumberPattern.MatchString(text)
}

// PhoneNumbers returns a lazy sequence of normalized candidate numbers found
// in text. The sequence holds no state and can be ranged over repeatedly.
func PhoneNumbers(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, match := range phoneNumberPattern.FindAllString(text, -1) {
			for _, candidate := range splitMatch(match) {
				if len(candidate) < minPhoneDigits {
					continue
				}
				if !yield(NormalizePhoneNumber(candidate)) {
					return
				}
			}
		}
	}
}

// ExtractPhoneNumbers collects PhoneNumbers(text) into a slice.
func ExtractPhoneNumbers(text string) []string {
	return slices.Collect(PhoneNumbers(text))
}

// splitMatch turns a raw regex match into one or more digit strings.
func splitMatch(match string) []string {
	trimmed := strings.Trim(match, " -")

	if len(trimmed) > concatenatedMatchLength && strings.Contains(trimmed, " ") {
		fields := strings.Fields(trimmed)
		numbers := make([]string, 0, len(fields))
		for _, field := range fields {
			if digits := strings.ReplaceAll(field, "-", ""); digits != "" {
				numbers = append(numbers, digits)
			}
		}
		return numbers
	}

	return []string{stripSeparators(trimmed)}
}

var separatorReplacer = strings.NewReplacer(" ", "", "-", "", "\t", "")

func stripSeparators(s string) string {
	return separatorReplacer.Replace(s)
}

// NormalizePhoneNumber drops a trunk prefix (11 digits starting with 0) or the
// 91 country code (12 digits). Anything else is assumed to be local already.
func NormalizePhoneNumber(number string) string {
	switch {
	case len(number) == 11 && number[0] == '0':
		return number[1:]
	case len(number) == 12 && strings.HasPrefix(number, "91"):
		return number[2:]
	default:
		return number
	}
}
