package rules

import (
	"errors"
	"fmt"
)

var ErrRuleNotFound = errors.New("rule not found")

// ValidationError reports why a rule was rejected at the write boundary.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Skip reasons recorded when a rule cannot be evaluated against a transaction.
const (
	SkipMissingField        = "missing_field"
	SkipMissingValue        = "missing_value"
	SkipNotNumeric          = "not_numeric"
	SkipUnsupportedOperator = "unsupported_operator"
	SkipOperatorError       = "operator_error"
	SkipPanic               = "panic"
)

// SkipError marks a rule that was passed over for a transaction. It is
// logged and counted, never returned to callers of Evaluate.
type SkipError struct {
	RuleID string
	Field  string
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rule %s skipped (%s, field %q): %v", e.RuleID, e.Reason, e.Field, e.Err)
	}
	return fmt.Sprintf("rule %s skipped (%s, field %q)", e.RuleID, e.Reason, e.Field)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}
