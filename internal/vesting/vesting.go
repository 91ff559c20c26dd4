// Package vesting computes how much of a grant has unlocked at a time point.
//
// The calculation is pure and independent of authorization: it looks only at
// the schedule, the total and whether the creator has already terminated.
package vesting

import (
	"math/bits"

	"github.com/roach88/vestlock/internal/ir"
)

// Vested returns the amount unlocked at now.
//
// Rules, in order:
//  1. creatorClaimed > 0: the grant was terminated and everything the creator
//     did not take is vested, regardless of time.
//  2. now before start or before cliff: nothing is vested.
//  3. now at or past end: the full total is vested.
//  4. otherwise: floor((now - start) * total / (end - start)).
//
// If (now - start) * total overflows 64 bits the result is total. Overflow
// never under-reports what is owed and never exceeds total.
//
// A zero-width window in the interpolation branch returns ArithmeticError;
// CheckOrdering rejects such schedules before they get here.
func Vested(now, start, end, cliff, total, creatorClaimed uint64) (uint64, error) {
	if creatorClaimed > 0 {
		if creatorClaimed > total {
			return 0, ir.Reject(ir.CodeArithmeticError, "creator_claimed exceeds total").
				With("creator_claimed", creatorClaimed).
				With("total", total)
		}
		return total - creatorClaimed, nil
	}

	if now < start || now < cliff {
		return 0, nil
	}
	if now >= end {
		return total, nil
	}
	if end <= start {
		return 0, ir.Reject(ir.CodeArithmeticError, "empty vesting window").
			With("start", start).
			With("end", end)
	}

	hi, lo := bits.Mul64(now-start, total)
	if hi != 0 {
		return total, nil
	}
	return lo / (end - start), nil
}

// At evaluates Vested for a decoded configuration and state.
func At(now uint64, cfg ir.Config, st ir.State) (uint64, error) {
	return Vested(now, cfg.Start, cfg.End, cfg.Cliff, st.Total, st.CreatorClaimed)
}

// Claimable returns how much the beneficiary could still claim at now.
func Claimable(now uint64, cfg ir.Config, st ir.State) (uint64, error) {
	v, err := At(now, cfg, st)
	if err != nil {
		return 0, err
	}
	if v <= st.BeneficiaryClaimed {
		return 0, nil
	}
	return v - st.BeneficiaryClaimed, nil
}
