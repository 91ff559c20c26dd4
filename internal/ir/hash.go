package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRecord     = "vestlock/record/v1"
	DomainTransition = "vestlock/transition/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID identifies a vesting record by its configuration bytes.
// Two records with byte-identical configuration share an identity, which is
// what makes batching two of them into one transaction detectable.
func RecordID(configBytes []byte) string {
	return hashWithDomain(DomainRecord, configBytes)
}

// TransitionFields is the canonical, hex-encoded view of a proposed transition
// used for content addressing. Outcome is deliberately absent: the ID
// describes what was proposed, not what was decided.
type TransitionFields struct {
	OldConfig   string
	OldState    string
	NewConfig   string
	NewState    string
	Credentials []string
	TimeRefs    []uint64
	Inputs      int
	Outputs     int
}

// TransitionID computes a content-addressed ID for a proposed transition.
// The same inputs always produce the same ID, so journal writes and replays
// are idempotent.
func TransitionID(f TransitionFields) (string, error) {
	creds := f.Credentials
	if creds == nil {
		creds = []string{}
	}
	refs := f.TimeRefs
	if refs == nil {
		refs = []uint64{}
	}
	obj := map[string]any{
		"old_config":  f.OldConfig,
		"old_state":   f.OldState,
		"new_config":  f.NewConfig,
		"new_state":   f.NewState,
		"credentials": creds,
		"time_refs":   refs,
		"inputs":      f.Inputs,
		"outputs":     f.Outputs,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransitionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTransition, canonical), nil
}
