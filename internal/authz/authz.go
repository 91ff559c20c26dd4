// Package authz classifies which capability a transaction exercises.
//
// There are exactly three classes. PermissionlessAction is not a failed
// authorization: anyone may push a record's time high-water mark forward.
// Field-level permissions per class are enforced by the engine.
package authz

import (
	"fmt"

	"github.com/roach88/vestlock/internal/ir"
)

// Class is the capability a transaction exercises.
type Class int

const (
	// PermissionlessAction is exercised when no configured credential signed.
	PermissionlessAction Class = iota

	// BeneficiaryAction is exercised when the beneficiary's credential signed.
	BeneficiaryAction

	// CreatorAction is exercised when the creator's credential signed.
	CreatorAction
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case CreatorAction:
		return "CreatorAction"
	case BeneficiaryAction:
		return "BeneficiaryAction"
	case PermissionlessAction:
		return "PermissionlessAction"
	default:
		return "Unknown"
	}
}

// Classify matches the authorizing credential hashes against the
// configuration by exact equality.
//
// When both parties signed, CreatorAction wins, matching the deployed script.
// A beneficiary wanting to claim submits without the creator's credential.
func Classify(cfg ir.Config, credentials []ir.Hash32) Class {
	creator, beneficiary := false, false
	for _, h := range credentials {
		if h == cfg.Creator {
			creator = true
		}
		if h == cfg.Beneficiary {
			beneficiary = true
		}
	}
	switch {
	case creator:
		return CreatorAction
	case beneficiary:
		return BeneficiaryAction
	default:
		return PermissionlessAction
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseClass converts a class name into a Class.
func ParseClass(s string) (Class, error) {
	for _, c := range []Class{PermissionlessAction, BeneficiaryAction, CreatorAction} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown authorization class %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
