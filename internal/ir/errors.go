package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code identifies a rejection reason. The set is closed: every rejected
// transition carries exactly one of these.
type Code string

const (
	// CodeMalformedLayout indicates a configuration or state buffer of the wrong width.
	CodeMalformedLayout Code = "MALFORMED_LAYOUT"

	// CodeInvalidTransactionStructure indicates a wrong input/output shape or a no-op transition.
	CodeInvalidTransactionStructure Code = "INVALID_TRANSACTION_STRUCTURE"

	// CodeInvalidAmount indicates a partial termination or a claim that breaks the caps.
	CodeInvalidAmount Code = "INVALID_AMOUNT"

	// CodeInsufficientVested indicates a claim beyond the vested amount.
	CodeInsufficientVested Code = "INSUFFICIENT_VESTED"

	// CodeAlreadyTerminated indicates a second termination attempt.
	CodeAlreadyTerminated Code = "ALREADY_TERMINATED"

	// CodeInvalidEpochOrdering indicates a schedule violating start <= cliff <= end.
	CodeInvalidEpochOrdering Code = "INVALID_EPOCH_ORDERING"

	// CodeStaleHeader indicates trusted time behind the recorded high-water mark.
	CodeStaleHeader Code = "STALE_HEADER"

	// CodeUnauthorized indicates credentials that do not match the attempted transition.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeArithmeticError indicates a degenerate division or unrecoverable overflow.
	CodeArithmeticError Code = "ARITHMETIC_ERROR"
)

// exitCodes maps each code to the number reported to the host runtime.
// Numbers follow the deployed script where a counterpart exists.
var exitCodes = map[Code]int{
	CodeMalformedLayout:             10,
	CodeInvalidTransactionStructure: 13,
	CodeInvalidAmount:               20,
	CodeInsufficientVested:          21,
	CodeAlreadyTerminated:           22,
	CodeInvalidEpochOrdering:        23,
	CodeStaleHeader:                 24,
	CodeUnauthorized:                25,
	CodeArithmeticError:             26,
}

// Codes returns every rejection code ordered by exit code.
func Codes() []Code {
	codes := make([]Code, 0, len(exitCodes))
	for c := range exitCodes {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		return exitCodes[codes[i]] < exitCodes[codes[j]]
	})
	return codes
}

// ExitCode returns the host-facing numeric code. Unknown codes map to -1.
func (c Code) ExitCode() int {
	if n, ok := exitCodes[c]; ok {
		return n
	}
	return -1
}

// Valid reports whether c belongs to the taxonomy.
func (c Code) Valid() bool {
	_, ok := exitCodes[c]
	return ok
}

// ParseCode accepts either the canonical form ("STALE_HEADER") or the
// CamelCase name used in documentation ("StaleHeader").
func ParseCode(s string) (Code, error) {
	if c := Code(s); c.Valid() {
		return c, nil
	}
	for c := range exitCodes {
		if strings.EqualFold(strings.ReplaceAll(string(c), "_", ""), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown rejection code %q", s)
}

// RejectError is the single error type returned for rejected transitions.
//
// It is terminal: nothing inside the validator recovers from it, and the
// whole transition is aborted.
type RejectError struct {
	// Code is the rejection reason.
	Code Code

	// Message is a human-readable description.
	Message string

	// Details carries the offending values for diagnostics.
	Details map[string]string
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Details[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// Reject creates a RejectError with a formatted message.
func Reject(code Code, format string, args ...any) *RejectError {
	return &RejectError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// With returns a copy of e with an extra detail attached.
func (e *RejectError) With(key string, value any) *RejectError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = fmt.Sprint(value)
	return &RejectError{Code: e.Code, Message: e.Message, Details: details}
}

// CodeOf extracts the rejection code from err. Uses errors.As so wrapped
// errors are handled. Returns "" for nil or foreign errors.
func CodeOf(err error) Code {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCode reports whether err is a RejectError with the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
