// Package uuid wraps google/uuid with the helpers the rest of the API needs:
// time-ordered primary keys and validation of ids received from clients.
package uuid

import (
	"fmt"

	googleuuid "github.com/google/uuid"
)

// New generates a new UUIDv7. UUIDv7 is time-ordered, which keeps
// primary-key inserts append-only on the B-tree index.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Falls back to a random UUIDv4 when the clock source or entropy fails.
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates and normalizes a UUID string.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}

// ParseAll normalizes a list of ids, dropping duplicates while keeping the
// original order. It fails on the first malformed id.
func ParseAll(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", raw, err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
