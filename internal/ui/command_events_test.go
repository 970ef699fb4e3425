package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/craftline/internal/execshell"
	"github.com/temirov/craftline/internal/ui"
)

const (
	testCommandExecutableConstant           = execshell.CommandName("make")
	testCommandWorkingDirectoryConstant     = "/tmp/project"
	testCommandArgumentConstant             = "release"
	testCommandNameFieldExpectationConstant = "make release (in /tmp/project)"
	testExecutionFailureReasonConstant      = "execution failed"
	testStandardErrorMessageConstant        = "fatal: target not found"
	testStartMessageExpectationConstant     = "Running " + testCommandNameFieldExpectationConstant
	testSuccessMessageExpectationConstant   = "Completed " + testCommandNameFieldExpectationConstant
	testFailureMessageExpectationConstant   = testCommandNameFieldExpectationConstant + " failed with exit code 1: " + testStandardErrorMessageConstant
	testExecutionFailureMessageExpectation  = testCommandNameFieldExpectationConstant + " failed: " + testExecutionFailureReasonConstant
)

type recordingProgressReporter struct {
	progressMessages []string
	warningMessages  []string
	traceMessages    []string
}

func (reporter *recordingProgressReporter) Progress(text string, _ bool) error {
	reporter.progressMessages = append(reporter.progressMessages, text)
	return nil
}

func (reporter *recordingProgressReporter) Warning(text string) error {
	reporter.warningMessages = append(reporter.warningMessages, text)
	return nil
}

func (reporter *recordingProgressReporter) Trace(text string) error {
	reporter.traceMessages = append(reporter.traceMessages, text)
	return nil
}

func buildTestCommand() execshell.ShellCommand {
	return execshell.ShellCommand{
		Name: testCommandExecutableConstant,
		Details: execshell.CommandDetails{
			Arguments:        []string{testCommandArgumentConstant},
			WorkingDirectory: testCommandWorkingDirectoryConstant,
		},
	}
}

func TestEmitterCommandEventObserverRoutesLifecycleEvents(testInstance *testing.T) {
	command := buildTestCommand()

	testCases := []struct {
		name             string
		invoke           func(observer *ui.EmitterCommandEventObserver)
		expectedProgress []string
		expectedWarnings []string
		expectedTraces   []string
	}{
		{
			name: "command_started",
			invoke: func(observer *ui.EmitterCommandEventObserver) {
				observer.CommandStarted(command)
			},
			expectedProgress: []string{testStartMessageExpectationConstant},
		},
		{
			name: "command_completed_success",
			invoke: func(observer *ui.EmitterCommandEventObserver) {
				observer.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedTraces: []string{testSuccessMessageExpectationConstant},
		},
		{
			name: "command_completed_failure",
			invoke: func(observer *ui.EmitterCommandEventObserver) {
				observer.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 1, StandardError: testStandardErrorMessageConstant})
			},
			expectedWarnings: []string{testFailureMessageExpectationConstant},
		},
		{
			name: "command_execution_failed",
			invoke: func(observer *ui.EmitterCommandEventObserver) {
				observer.CommandExecutionFailed(command, errors.New(testExecutionFailureReasonConstant))
			},
			expectedWarnings: []string{testExecutionFailureMessageExpectation},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			reporter := &recordingProgressReporter{}
			observer := ui.NewEmitterCommandEventObserver(reporter)

			testCase.invoke(observer)

			require.Equal(testInstance, testCase.expectedProgress, reporter.progressMessages)
			require.Equal(testInstance, testCase.expectedWarnings, reporter.warningMessages)
			require.Equal(testInstance, testCase.expectedTraces, reporter.traceMessages)
		})
	}
}

func TestCommandEventFormatterHandlesMissingDetails(testInstance *testing.T) {
	formatter := ui.CommandEventFormatter{}
	bareCommand := execshell.ShellCommand{Name: testCommandExecutableConstant}

	require.Equal(testInstance, "Running make", formatter.BuildStartedMessage(bareCommand))
	require.Equal(testInstance, "make failed: unknown error", formatter.BuildExecutionFailureMessage(bareCommand, nil))
}
