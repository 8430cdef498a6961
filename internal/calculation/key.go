package calculation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CacheKey derives the deterministic cache key for one logical calculation
// request. Parameters are canonicalized (object keys sorted recursively) so
// logically equal requests always collide on the same key regardless of the
// field order the caller serialized; key-order drift here silently turns
// every lookup into a miss.
func CacheKey(kind Kind, params json.RawMessage) (string, error) {
	canonical, err := CanonicalParams(params)
	if err != nil {
		return "", err
	}
	return string(kind) + ":" + canonical, nil
}

// KindPrefix returns the key prefix shared by every cached result of kind,
// used for targeted invalidation.
func KindPrefix(kind Kind) string {
	return string(kind) + ":"
}

// CanonicalParams returns an order-stable JSON rendering of params.
// encoding/json marshals map keys in sorted order, so a decode/encode
// round-trip canonicalizes arbitrarily nested objects.
func CanonicalParams(params json.RawMessage) (string, error) {
	if len(params) == 0 {
		return "null", nil
	}
	trimmed := strings.TrimSpace(string(params))
	if trimmed == "" {
		return "null", nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return "", fmt.Errorf("decode calculation params: %w", err)
	}
	encoded, err := json.Marshal(decoded)
	if err != nil {
		return "", fmt.Errorf("canonicalize calculation params: %w", err)
	}
	return string(encoded), nil
}
