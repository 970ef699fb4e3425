package script

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/emitter"
	"github.com/temirov/craftline/internal/execshell"
	"github.com/temirov/craftline/internal/script"
	"github.com/temirov/craftline/internal/ui"
	"github.com/temirov/craftline/internal/utils/flags"
)

const (
	runCommandNameConstant              = "run"
	runCommandHelpTextConstant          = "Execute the steps of a runbook"
	runbookPathArgumentMissingMessage   = "script run expects exactly one runbook path"
	permanentProgressFlagNameConstant   = "permanent-progress"
	permanentProgressFlagUsageConstant  = "Keep command announcements on the terminal instead of repainting them"
	runbookPathArgumentExpectedCountNum = 1
)

// RunCommandHandler executes a runbook through the shell executor while the
// output emitter narrates progress.
type RunCommandHandler struct {
	outputEmitter     *emitter.Emitter
	permanentProgress bool
}

// NewRunCommandHandler constructs the handler bound to the shared emitter.
func NewRunCommandHandler(outputEmitter *emitter.Emitter) *RunCommandHandler {
	return &RunCommandHandler{outputEmitter: outputEmitter}
}

// Name reports the command word.
func (handler *RunCommandHandler) Name() string {
	return runCommandNameConstant
}

// HelpText reports the one-line command description.
func (handler *RunCommandHandler) HelpText() string {
	return runCommandHelpTextConstant
}

// FillArguments registers the run command flags.
func (handler *RunCommandHandler) FillArguments(flagSet *pflag.FlagSet) {
	flags.AddToggleFlag(flagSet, &handler.permanentProgress, permanentProgressFlagNameConstant, "", false, permanentProgressFlagUsageConstant)
}

// Run loads the runbook named by the single positional argument and executes
// its steps in order.
func (handler *RunCommandHandler) Run(executionContext context.Context, arguments []string) error {
	if len(arguments) != runbookPathArgumentExpectedCountNum {
		return clierrors.NewUsageError(runbookPathArgumentMissingMessage)
	}

	runbook, loadError := script.LoadRunbook(arguments[0])
	if loadError != nil {
		return loadError
	}

	eventObserver := ui.NewEmitterCommandEventObserver(handler.outputEmitter)
	eventObserver.PermanentProgress = handler.permanentProgress

	shellExecutor, executorError := execshell.NewShellExecutor(execshell.NewOSCommandRunner(), eventObserver)
	if executorError != nil {
		return executorError
	}

	runbookExecutor, runbookExecutorError := script.NewExecutor(handler.outputEmitter, shellExecutor)
	if runbookExecutorError != nil {
		return runbookExecutorError
	}

	return runbookExecutor.Run(executionContext, runbook)
}
