package model

import "fmt"

// ValidationError represents document field validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// ParseError represents structural failures while decoding a document
type ParseError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse failed on %s: %s (%v)", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse failed on %s: %s", e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error
func NewParseError(field, message string, cause error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// EncodingError represents malformed Base64 envelope content
type EncodingError struct {
	Message string
	Cause   error
}

func (e *EncodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("encoding failed: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("encoding failed: %s", e.Message)
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// NewEncodingError creates a new encoding error
func NewEncodingError(message string, cause error) *EncodingError {
	return &EncodingError{Message: message, Cause: cause}
}

// HashMismatchError reports divergence between a computed digest and a
// claimed or authority-provided one. Always fatal to the transition that
// discovered it; never silently reconciled in favor of either side.
type HashMismatchError struct {
	Context  string
	Claimed  string
	Computed string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("hash mismatch (%s): claimed=%s computed=%s", e.Context, e.Claimed, e.Computed)
}

// NewHashMismatchError creates a new hash mismatch error
func NewHashMismatchError(context, claimed, computed string) *HashMismatchError {
	return &HashMismatchError{Context: context, Claimed: claimed, Computed: computed}
}
