// Package ledgerstore persists the historical phone number snapshot. Every
// backend loads and saves the whole map of number to first-seen time.
package ledgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedSnapshot marks stored data that does not decode to a valid
// snapshot.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// decodeSnapshot parses the {"number": "RFC3339 time"} JSON document. An
// empty document or JSON null is an empty snapshot.
func decodeSnapshot(data []byte) (map[string]time.Time, error) {
	numbers := make(map[string]time.Time)
	if len(data) == 0 {
		return numbers, nil
	}

	var decoded map[string]time.Time
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	for number, seenAt := range decoded {
		if number == "" {
			return nil, fmt.Errorf("%w: empty phone number key", ErrMalformedSnapshot)
		}
		numbers[number] = seenAt
	}
	return numbers, nil
}

func encodeSnapshot(numbers map[string]time.Time) ([]byte, error) {
	if numbers == nil {
		numbers = map[string]time.Time{}
	}
	data, err := json.Marshal(numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}
