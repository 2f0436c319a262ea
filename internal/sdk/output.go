package sdk

import (
	"regexp"
	"strings"
)

// Marker lines in the SDK's textual output. The engine parses these
// defensively: anything that does not match is a tool-contract violation,
// not a validation verdict.
const (
	validationMarker = "GLOBAL VALIDATION RESULT"
	validationPassed = "PASSED"
)

var (
	validationLine = regexp.MustCompile(`GLOBAL VALIDATION RESULT\s*=\s*(\S+)`)
	hashLine       = regexp.MustCompile(`\*\*\* INVOICE HASH\s*=\s*(\S+)`)
)

// ValidationOutcome is the typed result of scanning the validator's output.
// A failed verdict is a business-level outcome, distinct from a tool fault.
type ValidationOutcome struct {
	Passed      bool
	Diagnostics string
}

// parseValidationOutput extracts the global verdict from SDK output. The
// marker must be present; its absence means the tool broke its contract.
func parseValidationOutput(output string) (*ValidationOutcome, error) {
	m := validationLine.FindStringSubmatch(output)
	if m == nil {
		return nil, NewToolInvocationError(OpValidate, output, errMissingMarker(validationMarker))
	}
	return &ValidationOutcome{
		Passed:      m[1] == validationPassed,
		Diagnostics: strings.TrimSpace(output),
	}, nil
}

// parseHashOutput extracts the authority-computed digest from SDK output.
func parseHashOutput(output string) (string, error) {
	m := hashLine.FindStringSubmatch(output)
	if m == nil {
		return "", NewToolInvocationError(OpGenerateHash, output, errMissingMarker("*** INVOICE HASH"))
	}
	return strings.TrimSpace(m[1]), nil
}

type errMissingMarker string

func (e errMissingMarker) Error() string {
	return "marker line " + string(e) + " not found in tool output"
}
