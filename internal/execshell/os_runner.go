package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
)

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command and buffers its output streams.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := runner.buildExecutable(executionContext, command)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	exitCode, runError := runner.runExecutable(executable)
	if runError != nil {
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       exitCode,
	}, nil
}

// RunStreaming executes the supplied command with combined standard output and
// standard error forwarded to outputWriter as the process produces them.
// Standard error is additionally buffered so failure reporting can quote it.
func (runner *OSCommandRunner) RunStreaming(executionContext context.Context, command ShellCommand, outputWriter io.Writer) (ExecutionResult, error) {
	executable := runner.buildExecutable(executionContext, command)

	var standardErrorBuffer bytes.Buffer
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	executable.Stdout = outputWriter
	executable.Stderr = io.MultiWriter(outputWriter, &standardErrorBuffer)

	exitCode, runError := runner.runExecutable(executable)
	if runError != nil {
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardError: standardErrorBuffer.String(),
		ExitCode:      exitCode,
	}, nil
}

func (runner *OSCommandRunner) buildExecutable(executionContext context.Context, command ShellCommand) *exec.Cmd {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	return executable
}

func (runner *OSCommandRunner) runExecutable(executable *exec.Cmd) (int, error) {
	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return exitError.ExitCode(), nil
		}
		return 0, runError
	}
	return 0, nil
}
