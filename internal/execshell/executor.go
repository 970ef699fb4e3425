package execshell

import (
	"context"
	"errors"
	"io"
)

const (
	commandRunnerRequiredMessageConstant = "command runner must be provided"
	commandNameRequiredMessageConstant   = "command name must be provided"
)

// ShellExecutor coordinates command execution and lifecycle notifications.
//
// Every invocation is announced to the configured event observer before the
// process starts and reported again once it finishes, so callers can surface
// subprocess activity without owning the execution plumbing.
type ShellExecutor struct {
	commandRunner CommandRunner
	eventObserver CommandEventObserver
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
// A nil observer is replaced with a no-op implementation.
func NewShellExecutor(commandRunner CommandRunner, eventObserver CommandEventObserver) (*ShellExecutor, error) {
	if commandRunner == nil {
		return nil, errors.New(commandRunnerRequiredMessageConstant)
	}
	if eventObserver == nil {
		eventObserver = noopCommandEventObserver{}
	}
	return &ShellExecutor{commandRunner: commandRunner, eventObserver: eventObserver}, nil
}

// Execute runs the command with buffered output capture.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if validationError := validateCommand(command); validationError != nil {
		return ExecutionResult{}, validationError
	}

	executor.eventObserver.CommandStarted(command)

	executionResult, executionError := executor.commandRunner.Run(executionContext, command)
	if executionError != nil {
		executor.eventObserver.CommandExecutionFailed(command, executionError)
		return ExecutionResult{}, executionError
	}

	executor.eventObserver.CommandCompleted(command, executionResult)
	return executionResult, nil
}

// ExecuteStreaming runs the command while forwarding its combined output to
// outputWriter line by line as the process produces it.
func (executor *ShellExecutor) ExecuteStreaming(executionContext context.Context, command ShellCommand, outputWriter io.Writer) (ExecutionResult, error) {
	if validationError := validateCommand(command); validationError != nil {
		return ExecutionResult{}, validationError
	}

	executor.eventObserver.CommandStarted(command)

	executionResult, executionError := executor.commandRunner.RunStreaming(executionContext, command, outputWriter)
	if executionError != nil {
		executor.eventObserver.CommandExecutionFailed(command, executionError)
		return ExecutionResult{}, executionError
	}

	executor.eventObserver.CommandCompleted(command, executionResult)
	return executionResult, nil
}

func validateCommand(command ShellCommand) error {
	if len(command.Name) == 0 {
		return errors.New(commandNameRequiredMessageConstant)
	}
	return nil
}
