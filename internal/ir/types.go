package ir

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashLen is the width of a credential hash in bytes.
const HashLen = 32

// Hash32 is an opaque credential hash.
// Authorization compares hashes by exact equality only.
type Hash32 [HashLen]byte

// ParseHash32 decodes a 64-character hex string, with or without a 0x prefix.
func ParseHash32(s string) (Hash32, error) {
	var h Hash32
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return h, fmt.Errorf("parse hash: %w", err)
	}
	if len(raw) != HashLen {
		return h, fmt.Errorf("parse hash: want %d bytes, got %d", HashLen, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the hash as 0x-prefixed lowercase hex.
func (h Hash32) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(text []byte) error {
	parsed, err := ParseHash32(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Config is the immutable vesting configuration carried in a record's identity.
//
// INVARIANT: Start <= Cliff <= End and Start != End. Checked at creation and
// again on every transition (see CheckOrdering).
type Config struct {
	Creator     Hash32 `json:"creator"`
	Beneficiary Hash32 `json:"beneficiary"`
	Start       uint64 `json:"start"`
	End         uint64 `json:"end"`
	Cliff       uint64 `json:"cliff"`
}

// CheckOrdering rejects schedules that violate start <= cliff <= end or
// have an empty vesting window.
func (c Config) CheckOrdering() error {
	if c.Start >= c.End || c.Cliff < c.Start || c.Cliff > c.End {
		return &RejectError{
			Code:    CodeInvalidEpochOrdering,
			Message: "schedule must satisfy start <= cliff <= end with start < end",
			Details: map[string]string{
				"start": fmt.Sprintf("%d", c.Start),
				"cliff": fmt.Sprintf("%d", c.Cliff),
				"end":   fmt.Sprintf("%d", c.End),
			},
		}
	}
	return nil
}

// State is the mutable payload of a record, replaced wholesale per transition.
type State struct {
	Total              uint64 `json:"total" yaml:"total" mapstructure:"total"`
	BeneficiaryClaimed uint64 `json:"beneficiary_claimed" yaml:"beneficiary_claimed" mapstructure:"beneficiary_claimed"`
	CreatorClaimed     uint64 `json:"creator_claimed" yaml:"creator_claimed" mapstructure:"creator_claimed"`
	HighestTimeSeen    uint64 `json:"highest_time_seen" yaml:"highest_time_seen" mapstructure:"highest_time_seen"`
}

// Terminated reports whether the creator has already reclaimed unvested value.
func (s State) Terminated() bool {
	return s.CreatorClaimed > 0
}

// Claimed returns beneficiary_claimed + creator_claimed and whether the sum
// fits in 64 bits.
func (s State) Claimed() (uint64, bool) {
	sum := s.BeneficiaryClaimed + s.CreatorClaimed
	return sum, sum >= s.BeneficiaryClaimed
}

// CheckConservation rejects states whose claims exceed the total.
func (s State) CheckConservation() error {
	claimed, ok := s.Claimed()
	if !ok || claimed > s.Total {
		return &RejectError{
			Code:    CodeInvalidAmount,
			Message: "claims exceed total amount",
			Details: map[string]string{
				"total":               fmt.Sprintf("%d", s.Total),
				"beneficiary_claimed": fmt.Sprintf("%d", s.BeneficiaryClaimed),
				"creator_claimed":     fmt.Sprintf("%d", s.CreatorClaimed),
			},
		}
	}
	return nil
}

// Status is the lifecycle position of a record.
type Status string

const (
	// StatusActive means the creator has not terminated.
	StatusActive Status = "active"

	// StatusTerminated means creator_claimed > 0 and a record still exists.
	StatusTerminated Status = "terminated"

	// StatusClosed means the record was consumed without a successor.
	StatusClosed Status = "closed"
)

// StatusOf returns the status of a live record state.
func StatusOf(s State) Status {
	if s.Terminated() {
		return StatusTerminated
	}
	return StatusActive
}
