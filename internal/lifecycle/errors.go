package lifecycle

import (
	"fmt"

	"github.com/rezonia/einvoice-clearance/internal/model"
)

// StateError reports a transition attempted from an incompatible lifecycle
// state. The invoice is left untouched.
type StateError struct {
	Op    string
	State model.State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s an invoice in state %s", e.Op, e.State)
}

// NewStateError creates a new state precondition error
func NewStateError(op string, state model.State) *StateError {
	return &StateError{Op: op, State: state}
}

// ClearanceValidationFailure means the validator ran successfully but
// reported a non-PASSED verdict: the document is wrong, not the tooling.
type ClearanceValidationFailure struct {
	State       model.State
	Diagnostics string
}

func (e *ClearanceValidationFailure) Error() string {
	return fmt.Sprintf("validation reported FAILED (invoice state %s)", e.State)
}

// NewClearanceValidationFailure creates a new clearance validation failure
func NewClearanceValidationFailure(state model.State, diagnostics string) *ClearanceValidationFailure {
	return &ClearanceValidationFailure{State: state, Diagnostics: diagnostics}
}
