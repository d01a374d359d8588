package events

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// CanonicalJSON renders v deterministically: marshal, re-read into untyped
// maps, marshal again. encoding/json sorts map keys, so the second pass is
// stable regardless of struct field order or input key order.
func CanonicalJSON(v any) ([]byte, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	var untyped any
	if err := json.Unmarshal(first, &untyped); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	out, err := json.Marshal(untyped)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return out, nil
}

// PayloadHash is the SHA-256 of the canonical JSON of v. It keys raw-landing
// dedup: same payload, same hash, no matter who serialized it.
func PayloadHash(v any) ([]byte, error) {
	canon, err := CanonicalJSON(v)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(canon)
	return sum[:], nil
}
