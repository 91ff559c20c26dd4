// Package engine decides whether a proposed transition of a vesting record
// is legal.
//
// A Validator is a pure decision function. Each call to Validate decodes the
// old and new record, classifies the authorizing credentials, selects exactly
// one of four transition rules and runs that rule's checks. The result is
// either a Verdict or a *ir.RejectError carrying one code from the closed
// taxonomy. Nothing is retried and nothing is partially applied.
//
// Check order:
//
//  1. Cardinality: exactly one governed input and at most one output.
//  2. Layout: old and new buffers decode at their fixed widths.
//  3. Configuration is byte-identical old to new and its schedule is ordered.
//  4. Trusted time is the maximum supplied time reference and does not
//     regress behind the recorded high-water mark.
//  5. The old state conserves value.
//  6. Authorization class and transition kind are selected.
//  7. Shared successor checks, then the selected rule.
//
// A Validator holds no mutable state other than its sequence clock, so
// different records may be validated concurrently. Mutual exclusion on a
// single record belongs to the host.
package engine
