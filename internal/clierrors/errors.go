package clierrors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	craftErrorFallbackMessageConstant        = "command failed"
	usageErrorPrefixConstant                 = "usage error: "
	invalidStateErrorTemplateConstant        = "invalid emitter state: %s requires %s but state is %s"
	alreadyInitializedErrorMessageConstant   = "emitter already initialized"
	successExitCodeConstant                  = 0
	craftFailureExitCodeConstant             = 1
	usageFailureExitCodeConstant             = 2
	internalFailureExitCodeConstant          = 1
	emptyStringConstant                      = ""
	causeChainSeparatorConstant              = ": "
	detailsLabelConstant                     = "Detailed information: "
	resolutionLabelConstant                  = "Recommended resolution: "
	documentationLabelConstant               = "For more information, check out: "
	craftErrorStateRequirementLabelConstant  = "state"
	craftErrorUnknownOperationLabelConstant  = "operation"
	craftErrorUnknownStateDescriptorConstant = "unknown"
)

// CraftError describes a domain or operation failure surfaced to end users.
//
// The short message reaches the terminal; details and the cause chain are
// reserved for the run log unless a debugging verbosity mode is active.
type CraftError struct {
	Message    string
	Details    string
	Resolution string
	DocsURL    string
	Cause      error
}

// NewCraftError constructs a CraftError carrying the provided short message.
func NewCraftError(message string) *CraftError {
	return &CraftError{Message: message}
}

// Error implements the error interface using the short user-facing message.
func (craftError *CraftError) Error() string {
	trimmedMessage := strings.TrimSpace(craftError.Message)
	if len(trimmedMessage) == 0 {
		return craftErrorFallbackMessageConstant
	}
	return trimmedMessage
}

// Unwrap exposes the chained cause for errors.Is and errors.As traversal.
func (craftError *CraftError) Unwrap() error {
	return craftError.Cause
}

// LogLines renders the full diagnostic detail destined for the run log.
func (craftError *CraftError) LogLines() []string {
	diagnosticLines := []string{craftError.Error()}
	if len(strings.TrimSpace(craftError.Details)) > 0 {
		diagnosticLines = append(diagnosticLines, detailsLabelConstant+craftError.Details)
	}
	for _, causeLine := range CauseChain(craftError.Cause) {
		diagnosticLines = append(diagnosticLines, causeLine)
	}
	if len(strings.TrimSpace(craftError.Resolution)) > 0 {
		diagnosticLines = append(diagnosticLines, resolutionLabelConstant+craftError.Resolution)
	}
	if len(strings.TrimSpace(craftError.DocsURL)) > 0 {
		diagnosticLines = append(diagnosticLines, documentationLabelConstant+craftError.DocsURL)
	}
	return diagnosticLines
}

// TerminalLines renders the short user-facing summary plus the resolution hint.
func (craftError *CraftError) TerminalLines() []string {
	terminalLines := []string{craftError.Error()}
	if len(strings.TrimSpace(craftError.Resolution)) > 0 {
		terminalLines = append(terminalLines, resolutionLabelConstant+craftError.Resolution)
	}
	if len(strings.TrimSpace(craftError.DocsURL)) > 0 {
		terminalLines = append(terminalLines, documentationLabelConstant+craftError.DocsURL)
	}
	return terminalLines
}

// CauseChain flattens a wrapped error chain into individual description lines.
func CauseChain(cause error) []string {
	chainLines := []string{}
	for currentError := cause; currentError != nil; currentError = errors.Unwrap(currentError) {
		chainLines = append(chainLines, currentError.Error())
	}
	return chainLines
}

// UsageError marks an invalid command-line invocation.
type UsageError struct {
	Message string
}

// NewUsageError constructs a UsageError with the provided description.
func NewUsageError(message string) *UsageError {
	return &UsageError{Message: message}
}

// Error implements the error interface for usage failures.
func (usageError *UsageError) Error() string {
	return usageErrorPrefixConstant + usageError.Message
}

// InvalidStateError reports an emitter call made in a state that forbids it.
//
// It indicates a programming error in the embedding application and is never
// converted into user-facing output by the dispatcher.
type InvalidStateError struct {
	Operation     string
	RequiredState string
	CurrentState  string
}

// NewInvalidStateError constructs an InvalidStateError describing the violation.
func NewInvalidStateError(operation string, requiredState string, currentState string) *InvalidStateError {
	return &InvalidStateError{Operation: operation, RequiredState: requiredState, CurrentState: currentState}
}

// Error implements the error interface for emitter state violations.
func (stateError *InvalidStateError) Error() string {
	operationLabel := stateError.Operation
	if len(strings.TrimSpace(operationLabel)) == 0 {
		operationLabel = craftErrorUnknownOperationLabelConstant
	}
	requiredLabel := stateError.RequiredState
	if len(strings.TrimSpace(requiredLabel)) == 0 {
		requiredLabel = craftErrorUnknownStateDescriptorConstant + " " + craftErrorStateRequirementLabelConstant
	}
	currentLabel := stateError.CurrentState
	if len(strings.TrimSpace(currentLabel)) == 0 {
		currentLabel = craftErrorUnknownStateDescriptorConstant
	}
	return fmt.Sprintf(invalidStateErrorTemplateConstant, operationLabel, requiredLabel, currentLabel)
}

// AlreadyInitializedError reports a second emitter initialization attempt.
type AlreadyInitializedError struct{}

// Error implements the error interface for double initialization.
func (AlreadyInitializedError) Error() string {
	return alreadyInitializedErrorMessageConstant
}

// ResolveExitCode maps an error value to the process exit code contract:
// nil is 0, usage failures are 2, and every other failure is 1.
func ResolveExitCode(failure error) int {
	if failure == nil {
		return successExitCodeConstant
	}

	var usageError *UsageError
	if errors.As(failure, &usageError) {
		return usageFailureExitCodeConstant
	}

	var craftError *CraftError
	if errors.As(failure, &craftError) {
		return craftFailureExitCodeConstant
	}

	return internalFailureExitCodeConstant
}
