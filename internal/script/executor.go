package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/emitter"
	"github.com/temirov/craftline/internal/execshell"
	"github.com/temirov/craftline/internal/utils"
)

const (
	outputEmitterRequiredMessageConstant = "output emitter must be provided"
	shellExecutorRequiredMessageConstant = "shell executor must be provided"
	stepFailureMessageTemplateConstant   = "step %q failed with exit code %d"
	stepLaunchFailureTemplateConstant    = "step %q could not be started"
	stepFailureResolutionConstant        = "inspect the step output above, fix the failing command, and rerun the runbook"
	stepDetailsTemplateConstant          = "command: %s"
	runbookCompletedMessageTemplate      = "Runbook completed: %d steps"
	commandArgumentsSeparatorConstant    = " "
)

// Executor runs runbook steps sequentially through the shell executor.
//
// Each step becomes one emitter operation: the subprocess output streams
// through the operation handle, so it is logged and shown according to the
// active verbosity mode. Execution stops at the first failing step.
type Executor struct {
	outputEmitter *emitter.Emitter
	shellExecutor *execshell.ShellExecutor
}

// NewExecutor validates dependencies and constructs an Executor.
func NewExecutor(outputEmitter *emitter.Emitter, shellExecutor *execshell.ShellExecutor) (*Executor, error) {
	if outputEmitter == nil {
		return nil, errors.New(outputEmitterRequiredMessageConstant)
	}
	if shellExecutor == nil {
		return nil, errors.New(shellExecutorRequiredMessageConstant)
	}
	return &Executor{outputEmitter: outputEmitter, shellExecutor: shellExecutor}, nil
}

// Run executes every step of the runbook in order.
func (executor *Executor) Run(executionContext context.Context, runbook Runbook) error {
	if validationError := runbook.Validate(); validationError != nil {
		return validationError
	}

	for _, step := range runbook.Steps {
		if stepError := executor.runStep(executionContext, step); stepError != nil {
			return stepError
		}
	}

	return executor.outputEmitter.Message(fmt.Sprintf(runbookCompletedMessageTemplate, len(runbook.Steps)))
}

func (executor *Executor) runStep(executionContext context.Context, step StepConfiguration) error {
	operationHandle, openError := executor.outputEmitter.OpenStream(step.Label())
	if openError != nil {
		return openError
	}
	defer func() {
		_ = operationHandle.Close()
	}()

	shellCommand := execshell.ShellCommand{
		Name: execshell.CommandName(strings.TrimSpace(step.Command)),
		Details: execshell.CommandDetails{
			Arguments:            step.Arguments,
			WorkingDirectory:     step.WorkingDirectory,
			EnvironmentVariables: step.Environment,
		},
	}

	executionResult, executionError := executor.shellExecutor.ExecuteStreaming(
		executionContext,
		shellCommand,
		utils.NewFlushingWriter(operationHandle),
	)
	if executionError != nil {
		return &clierrors.CraftError{
			Message:    fmt.Sprintf(stepLaunchFailureTemplateConstant, step.Label()),
			Details:    fmt.Sprintf(stepDetailsTemplateConstant, describeCommand(shellCommand)),
			Resolution: stepFailureResolutionConstant,
			Cause:      executionError,
		}
	}
	if executionResult.ExitCode != 0 {
		return &clierrors.CraftError{
			Message:    fmt.Sprintf(stepFailureMessageTemplateConstant, step.Label(), executionResult.ExitCode),
			Details:    fmt.Sprintf(stepDetailsTemplateConstant, describeCommand(shellCommand)),
			Resolution: stepFailureResolutionConstant,
		}
	}

	return nil
}

func describeCommand(command execshell.ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(commandParts, commandArgumentsSeparatorConstant)
}
