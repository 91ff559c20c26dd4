package engine

import (
	"fmt"

	"github.com/roach88/vestlock/internal/authz"
	"github.com/roach88/vestlock/internal/ir"
)

// Kind names one of the four legal transitions.
type Kind string

const (
	// KindSecurityUpdate advances the time high-water mark. Open to anyone.
	KindSecurityUpdate Kind = "SecurityUpdate"

	// KindBeneficiaryClaim withdraws vested value before termination.
	KindBeneficiaryClaim Kind = "BeneficiaryClaim"

	// KindCreatorTermination reclaims all unvested value, once.
	KindCreatorTermination Kind = "CreatorTermination"

	// KindPostTerminationClaim withdraws what remains after termination.
	KindPostTerminationClaim Kind = "PostTerminationClaim"
)

// Kinds returns all transition kinds in a fixed order.
func Kinds() []Kind {
	return []Kind{
		KindSecurityUpdate,
		KindBeneficiaryClaim,
		KindCreatorTermination,
		KindPostTerminationClaim,
	}
}

// ParseKind converts a name into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown transition kind %q", s)
}

// SelectKind picks the rule for a transition from the old state shape, the
// authorization class and the successor state shape (nil when closing).
//
// A successor that leaves both claim counters untouched is a SecurityUpdate
// whoever signed. Everything else is a claim or termination and needs a
// matching credential.
func SelectKind(class authz.Class, old ir.State, next *ir.State) (Kind, error) {
	if next != nil &&
		next.BeneficiaryClaimed == old.BeneficiaryClaimed &&
		next.CreatorClaimed == old.CreatorClaimed {
		return KindSecurityUpdate, nil
	}

	switch class {
	case authz.CreatorAction:
		if old.Terminated() {
			return "", ir.Reject(ir.CodeAlreadyTerminated, "record was already terminated").
				With("creator_claimed", old.CreatorClaimed)
		}
		return KindCreatorTermination, nil
	case authz.BeneficiaryAction:
		if old.Terminated() {
			return KindPostTerminationClaim, nil
		}
		return KindBeneficiaryClaim, nil
	default:
		return "", ir.Reject(ir.CodeUnauthorized, "claim counters changed without creator or beneficiary credential").
			With("class", class)
	}
}
