package engine

import (
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/vesting"
)

// ruleInput is the decoded view a rule checks.
type ruleInput struct {
	cfg  ir.Config
	old  ir.State
	next *ir.State // nil when the record is consumed without successor
	now  uint64
}

// ruleResult is what a rule reports on success.
type ruleResult struct {
	to     ir.Status
	vested uint64
}

// rule checks one transition kind. Shared successor checks have already run.
type rule func(in ruleInput) (ruleResult, error)

var rules = map[Kind]rule{
	KindSecurityUpdate:       securityUpdate,
	KindBeneficiaryClaim:     beneficiaryClaim,
	KindCreatorTermination:   creatorTermination,
	KindPostTerminationClaim: postTerminationClaim,
}

// checkSuccessor runs the checks every successor state must pass regardless
// of kind.
func checkSuccessor(in ruleInput) error {
	next := in.next
	if next == nil {
		return nil
	}
	if next.Total != in.old.Total {
		return ir.Reject(ir.CodeInvalidAmount, "total amount must not change").
			With("old", in.old.Total).
			With("new", next.Total)
	}
	if next.HighestTimeSeen < in.old.HighestTimeSeen {
		return ir.Reject(ir.CodeStaleHeader, "highest_time_seen must not decrease").
			With("old", in.old.HighestTimeSeen).
			With("new", next.HighestTimeSeen)
	}
	if next.HighestTimeSeen > in.now {
		return ir.Reject(ir.CodeInvalidTransactionStructure, "highest_time_seen is ahead of trusted time").
			With("new", next.HighestTimeSeen).
			With("trusted_now", in.now)
	}
	return nil
}

func securityUpdate(in ruleInput) (ruleResult, error) {
	if in.next == nil {
		return ruleResult{}, ir.Reject(ir.CodeInvalidTransactionStructure, "security update must produce a successor record")
	}
	if in.next.HighestTimeSeen == in.old.HighestTimeSeen {
		return ruleResult{}, ir.Reject(ir.CodeInvalidTransactionStructure, "transition changes nothing").
			With("highest_time_seen", in.old.HighestTimeSeen)
	}
	v, err := vesting.At(in.now, in.cfg, in.old)
	if err != nil {
		return ruleResult{}, err
	}
	return ruleResult{to: ir.StatusOf(in.old), vested: v}, nil
}

func beneficiaryClaim(in ruleInput) (ruleResult, error) {
	v, err := vesting.At(in.now, in.cfg, in.old)
	if err != nil {
		return ruleResult{}, err
	}

	if in.next == nil {
		// Consuming the record hands over the whole balance.
		if v < in.old.Total {
			return ruleResult{}, ir.Reject(ir.CodeInsufficientVested, "closing claim requires the full amount to be vested").
				With("vested", v).
				With("total", in.old.Total)
		}
		return ruleResult{to: ir.StatusClosed, vested: v}, nil
	}

	next := in.next
	if next.CreatorClaimed != 0 {
		return ruleResult{}, ir.Reject(ir.CodeInvalidAmount, "beneficiary claim must not set creator_claimed").
			With("creator_claimed", next.CreatorClaimed)
	}
	if err := checkClaim(in.old, *next, v); err != nil {
		return ruleResult{}, err
	}
	if next.BeneficiaryClaimed == in.old.Total {
		return ruleResult{}, ir.Reject(ir.CodeInvalidTransactionStructure, "claim of the full amount must consume the record")
	}
	return ruleResult{to: ir.StatusActive, vested: v}, nil
}

func creatorTermination(in ruleInput) (ruleResult, error) {
	v, err := vesting.At(in.now, in.cfg, in.old)
	if err != nil {
		return ruleResult{}, err
	}
	owed := in.old.Total - in.old.BeneficiaryClaimed

	if in.next == nil {
		if owed != 0 {
			return ruleResult{}, ir.Reject(ir.CodeInvalidTransactionStructure, "termination must leave a record for the beneficiary").
				With("owed", owed)
		}
		return ruleResult{to: ir.StatusClosed, vested: v}, nil
	}

	next := in.next
	if owed == 0 {
		return ruleResult{}, ir.Reject(ir.CodeInvalidTransactionStructure, "fully claimed record must be consumed, not terminated")
	}
	if next.BeneficiaryClaimed != in.old.BeneficiaryClaimed {
		return ruleResult{}, ir.Reject(ir.CodeInvalidAmount, "termination must not change beneficiary_claimed").
			With("old", in.old.BeneficiaryClaimed).
			With("new", next.BeneficiaryClaimed)
	}
	if next.CreatorClaimed != owed {
		return ruleResult{}, ir.Reject(ir.CodeInvalidAmount, "termination must reclaim exactly the unclaimed balance").
			With("creator_claimed", next.CreatorClaimed).
			With("required", owed)
	}
	return ruleResult{to: ir.StatusTerminated, vested: v}, nil
}

func postTerminationClaim(in ruleInput) (ruleResult, error) {
	v, err := vesting.At(in.now, in.cfg, in.old)
	if err != nil {
		return ruleResult{}, err
	}

	if in.next == nil {
		return ruleResult{to: ir.StatusClosed, vested: v}, nil
	}

	next := in.next
	if next.CreatorClaimed != in.old.CreatorClaimed {
		return ruleResult{}, ir.Reject(ir.CodeInvalidAmount, "creator_claimed is fixed after termination").
			With("old", in.old.CreatorClaimed).
			With("new", next.CreatorClaimed)
	}
	if err := checkClaim(in.old, *next, v); err != nil {
		return ruleResult{}, err
	}
	if next.BeneficiaryClaimed == v {
		return ruleResult{}, ir.Reject(ir.CodeInvalidTransactionStructure, "claim of the remaining balance must consume the record")
	}
	return ruleResult{to: ir.StatusTerminated, vested: v}, nil
}

// checkClaim enforces monotonic beneficiary_claimed capped by vested.
func checkClaim(old, next ir.State, vested uint64) error {
	if next.BeneficiaryClaimed < old.BeneficiaryClaimed {
		return ir.Reject(ir.CodeInvalidAmount, "beneficiary_claimed must not decrease").
			With("old", old.BeneficiaryClaimed).
			With("new", next.BeneficiaryClaimed)
	}
	if next.BeneficiaryClaimed > vested {
		return ir.Reject(ir.CodeInsufficientVested, "claim exceeds vested amount").
			With("beneficiary_claimed", next.BeneficiaryClaimed).
			With("vested", vested)
	}
	return nil
}
