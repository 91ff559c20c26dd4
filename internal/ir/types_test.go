package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHash32(t *testing.T) {
	hexStr := strings.Repeat("ab", 32)

	h, err := ParseHash32(hexStr)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), h[0])
	assert.Equal(t, "0x"+hexStr, h.String())

	prefixed, err := ParseHash32("0x" + hexStr)
	require.NoError(t, err)
	assert.Equal(t, h, prefixed)
}

func TestParseHash32Errors(t *testing.T) {
	_, err := ParseHash32("zz")
	assert.Error(t, err)

	_, err = ParseHash32(strings.Repeat("00", 31))
	assert.Error(t, err)
}

func TestHash32TextRoundTrip(t *testing.T) {
	var h Hash32
	h[31] = 7
	text, err := h.MarshalText()
	require.NoError(t, err)

	var back Hash32
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, h, back)
}

func TestConfigCheckOrdering(t *testing.T) {
	tests := []struct {
		name              string
		start, cliff, end uint64
		ok                bool
	}{
		{"ordered", 100, 120, 200, true},
		{"cliff at start", 100, 100, 200, true},
		{"cliff at end", 100, 200, 200, true},
		{"empty window", 100, 100, 100, false},
		{"end before start", 200, 200, 100, false},
		{"cliff before start", 100, 50, 200, false},
		{"cliff after end", 100, 250, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Config{Start: tt.start, Cliff: tt.cliff, End: tt.end}.CheckOrdering()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsCode(err, CodeInvalidEpochOrdering), "got %v", err)
		})
	}
}

func TestStateConservation(t *testing.T) {
	assert.NoError(t, State{Total: 1000, BeneficiaryClaimed: 300, CreatorClaimed: 700}.CheckConservation())
	assert.NoError(t, State{}.CheckConservation())

	err := State{Total: 1000, BeneficiaryClaimed: 301, CreatorClaimed: 700}.CheckConservation()
	assert.True(t, IsCode(err, CodeInvalidAmount))

	// Sum wraps around 64 bits.
	err = State{Total: 10, BeneficiaryClaimed: ^uint64(0), CreatorClaimed: 2}.CheckConservation()
	assert.True(t, IsCode(err, CodeInvalidAmount))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusActive, StatusOf(State{Total: 10}))
	assert.Equal(t, StatusTerminated, StatusOf(State{Total: 10, CreatorClaimed: 1}))
}
