// Package layout decodes and encodes the fixed-width configuration and state
// buffers of a vesting record.
//
// Configuration (88 bytes):
//
//	creator hash (32) | beneficiary hash (32) | start (8) | end (8) | cliff (8)
//
// State (32 bytes):
//
//	total (8) | beneficiary_claimed (8) | creator_claimed (8) | highest_time_seen (8)
//
// All integers are unsigned 64-bit little-endian. The codec checks widths
// only; semantic checks belong to the engine.
package layout

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/roach88/vestlock/internal/ir"
)

// Buffer widths.
const (
	ConfigLen = 2*ir.HashLen + 3*8
	StateLen  = 4 * 8
)

// Configuration offsets.
const (
	creatorOffset     = 0
	beneficiaryOffset = creatorOffset + ir.HashLen
	startOffset       = beneficiaryOffset + ir.HashLen
	endOffset         = startOffset + 8
	cliffOffset       = endOffset + 8
)

// State offsets.
const (
	totalOffset              = 0
	beneficiaryClaimedOffset = 8
	creatorClaimedOffset     = 16
	highestTimeSeenOffset    = 24
)

var le = binary.LittleEndian

// DecodeConfig parses an 88-byte configuration buffer.
func DecodeConfig(b []byte) (ir.Config, error) {
	var c ir.Config
	if len(b) != ConfigLen {
		return c, malformed("config", ConfigLen, len(b))
	}
	copy(c.Creator[:], b[creatorOffset:beneficiaryOffset])
	copy(c.Beneficiary[:], b[beneficiaryOffset:startOffset])
	c.Start = le.Uint64(b[startOffset:])
	c.End = le.Uint64(b[endOffset:])
	c.Cliff = le.Uint64(b[cliffOffset:])
	return c, nil
}

// EncodeConfig is the exact inverse of DecodeConfig.
func EncodeConfig(c ir.Config) []byte {
	b := make([]byte, ConfigLen)
	copy(b[creatorOffset:], c.Creator[:])
	copy(b[beneficiaryOffset:], c.Beneficiary[:])
	le.PutUint64(b[startOffset:], c.Start)
	le.PutUint64(b[endOffset:], c.End)
	le.PutUint64(b[cliffOffset:], c.Cliff)
	return b
}

// DecodeState parses a 32-byte state buffer.
func DecodeState(b []byte) (ir.State, error) {
	var s ir.State
	if len(b) != StateLen {
		return s, malformed("state", StateLen, len(b))
	}
	s.Total = le.Uint64(b[totalOffset:])
	s.BeneficiaryClaimed = le.Uint64(b[beneficiaryClaimedOffset:])
	s.CreatorClaimed = le.Uint64(b[creatorClaimedOffset:])
	s.HighestTimeSeen = le.Uint64(b[highestTimeSeenOffset:])
	return s, nil
}

// EncodeState is the exact inverse of DecodeState.
func EncodeState(s ir.State) []byte {
	b := make([]byte, StateLen)
	le.PutUint64(b[totalOffset:], s.Total)
	le.PutUint64(b[beneficiaryClaimedOffset:], s.BeneficiaryClaimed)
	le.PutUint64(b[creatorClaimedOffset:], s.CreatorClaimed)
	le.PutUint64(b[highestTimeSeenOffset:], s.HighestTimeSeen)
	return b
}

// ParseHex decodes a hex buffer, tolerating a 0x prefix and surrounding space.
// It is the inverse of Hex: "" decodes to nil and a bare "0x" to an empty,
// non-nil buffer.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ir.Reject(ir.CodeMalformedLayout, "invalid hex: %v", err)
	}
	return b, nil
}

// Hex encodes a buffer as 0x-prefixed lowercase hex. nil encodes to "".
func Hex(b []byte) string {
	if b == nil {
		return ""
	}
	return "0x" + hex.EncodeToString(b)
}

func malformed(what string, want, got int) error {
	return ir.Reject(ir.CodeMalformedLayout, "%s buffer must be exactly %d bytes", what, want).
		With("length", got)
}
