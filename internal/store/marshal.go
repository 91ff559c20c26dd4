package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/vestlock/internal/ir"
)

// marshalStrings converts a string list to canonical JSON TEXT for storage.
func marshalStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// marshalUints converts a uint64 list to canonical JSON TEXT for storage.
func marshalUints(v []uint64) (string, error) {
	if v == nil {
		v = []uint64{}
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal uints: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return out, nil
}

// unmarshalUints decodes into uint64 directly so values above 2^53 keep
// full precision.
func unmarshalUints(data string) ([]uint64, error) {
	out := []uint64{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal uints: %w", err)
	}
	return out, nil
}

func formatUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func parseUint(field, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return n, nil
}
