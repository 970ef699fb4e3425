package script

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/emitter"
	"github.com/temirov/craftline/internal/script"
)

const (
	checkCommandNameConstant         = "check"
	checkCommandHelpTextConstant     = "Validate a runbook without executing it"
	checkSuccessMessageTemplateConst = "runbook OK: %d steps"
	checkArgumentMissingMessageConst = "script check expects exactly one runbook path"
)

// CheckCommandHandler validates runbook definitions without running them.
type CheckCommandHandler struct {
	outputEmitter *emitter.Emitter
}

// NewCheckCommandHandler constructs the handler bound to the shared emitter.
func NewCheckCommandHandler(outputEmitter *emitter.Emitter) *CheckCommandHandler {
	return &CheckCommandHandler{outputEmitter: outputEmitter}
}

// Name reports the command word.
func (handler *CheckCommandHandler) Name() string {
	return checkCommandNameConstant
}

// HelpText reports the one-line command description.
func (handler *CheckCommandHandler) HelpText() string {
	return checkCommandHelpTextConstant
}

// FillArguments registers the check command flags.
func (handler *CheckCommandHandler) FillArguments(flagSet *pflag.FlagSet) {}

// Run loads and validates the runbook named by the single positional argument.
func (handler *CheckCommandHandler) Run(executionContext context.Context, arguments []string) error {
	if len(arguments) != runbookPathArgumentExpectedCountNum {
		return clierrors.NewUsageError(checkArgumentMissingMessageConst)
	}

	runbook, loadError := script.LoadRunbook(arguments[0])
	if loadError != nil {
		return loadError
	}

	return handler.outputEmitter.Message(fmt.Sprintf(checkSuccessMessageTemplateConst, len(runbook.Steps)))
}
