package execshell

import (
	"context"
	"io"
)

// CommandName identifies the executable invoked for a shell command.
type CommandName string

// CommandDetails carries the invocation parameters for a shell command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines an executable name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to run shell commands.
//
// Run buffers the command's output streams into the result; RunStreaming
// forwards combined standard output and standard error to outputWriter as the
// process produces them, which keeps long-running commands observable.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
	RunStreaming(executionContext context.Context, command ShellCommand, outputWriter io.Writer) (ExecutionResult, error)
}
