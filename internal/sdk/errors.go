package sdk

import (
	"fmt"
	"time"
)

// ToolInvocationError means the external SDK process failed to run, exited
// non-zero, or produced output violating its textual contract. The captured
// output is kept for the caller's diagnostics.
type ToolInvocationError struct {
	Op     string
	Output string
	Cause  error
}

func (e *ToolInvocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sdk %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("sdk %s failed", e.Op)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Cause
}

// NewToolInvocationError creates a new tool invocation error
func NewToolInvocationError(op, output string, cause error) *ToolInvocationError {
	return &ToolInvocationError{Op: op, Output: output, Cause: cause}
}

// ToolTimeoutError means the external process exceeded the caller's time
// budget. The process has been terminated; the invoice is unchanged.
type ToolTimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *ToolTimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("sdk %s timed out after %s", e.Op, e.Timeout)
	}
	return fmt.Sprintf("sdk %s timed out", e.Op)
}

// NewToolTimeoutError creates a new tool timeout error
func NewToolTimeoutError(op string, timeout time.Duration) *ToolTimeoutError {
	return &ToolTimeoutError{Op: op, Timeout: timeout}
}
