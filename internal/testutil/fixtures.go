package testutil

import (
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// Hash returns a credential hash filled with b.
func Hash(b byte) ir.Hash32 {
	var h ir.Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

// Well-known credentials used across tests.
var (
	CreatorHash     = Hash(0xc1)
	BeneficiaryHash = Hash(0xb1)
	StrangerHash    = Hash(0x5a)
)

// LinearConfig is the reference schedule: start=100, end=200, cliff=120.
func LinearConfig() ir.Config {
	return ir.Config{
		Creator:     CreatorHash,
		Beneficiary: BeneficiaryHash,
		Start:       100,
		End:         200,
		Cliff:       120,
	}
}

// ConfigBytes encodes cfg.
func ConfigBytes(cfg ir.Config) []byte {
	return layout.EncodeConfig(cfg)
}

// StateBytes encodes st.
func StateBytes(st ir.State) []byte {
	return layout.EncodeState(st)
}

// Active returns an untouched state holding total with the given high-water mark.
func Active(total, hts uint64) ir.State {
	return ir.State{Total: total, HighestTimeSeen: hts}
}
