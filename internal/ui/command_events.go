package ui

import (
	"fmt"
	"strings"

	"github.com/temirov/craftline/internal/execshell"
)

const (
	commandStartedMessageTemplateConstant          = "Running %s"
	commandCompletedMessageTemplateConstant        = "Completed %s"
	commandFailedExitCodeMessageTemplateConstant   = "%s failed with exit code %d"
	commandExecutionFailureMessageTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant                   = "%s%s"
	workingDirectorySuffixTemplateConstant         = " (in %s)"
	commandArgumentsJoinSeparatorConstant          = " "
	standardErrorSuffixTemplateConstant            = ": %s"
	unknownFailureMessageConstant                  = "unknown error"
	emptyStringConstant                            = ""
)

// CommandEventFormatter builds human-readable messages for command lifecycle events.
type CommandEventFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandEventFormatter) BuildStartedMessage(command execshell.ShellCommand) string {
	return fmt.Sprintf(commandStartedMessageTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandEventFormatter) BuildSuccessMessage(command execshell.ShellCommand) string {
	return fmt.Sprintf(commandCompletedMessageTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandEventFormatter) BuildFailureMessage(command execshell.ShellCommand, result execshell.ExecutionResult) string {
	baseMessage := fmt.Sprintf(commandFailedExitCodeMessageTemplateConstant, formatter.formatCommandLabel(command), result.ExitCode)
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)
	if len(standardErrorSuffix) == 0 {
		return baseMessage
	}
	return baseMessage + standardErrorSuffix
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandEventFormatter) BuildExecutionFailureMessage(command execshell.ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(commandExecutionFailureMessageTemplateConstant, formatter.formatCommandLabel(command), failureMessage)
}

func (formatter CommandEventFormatter) formatCommandLabel(command execshell.ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandEventFormatter) formatWorkingDirectorySuffix(command execshell.ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandEventFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

// ProgressReporter is the subset of the output coordinator the observer
// needs: progress updates for the active operation plus warning and trace
// emissions.
type ProgressReporter interface {
	Progress(text string, permanent bool) error
	Warning(text string) error
	Trace(text string) error
}

// EmitterCommandEventObserver translates command lifecycle events into
// emissions on the active operation. Emission failures are swallowed: the
// observer runs inside an operation scope where the reporter state is
// managed by the caller.
type EmitterCommandEventObserver struct {
	reporter  ProgressReporter
	formatter CommandEventFormatter
	// PermanentProgress keeps command start announcements on the terminal
	// instead of repainting them in place.
	PermanentProgress bool
}

// NewEmitterCommandEventObserver constructs an observer backed by the provided reporter.
func NewEmitterCommandEventObserver(reporter ProgressReporter) *EmitterCommandEventObserver {
	return &EmitterCommandEventObserver{reporter: reporter, formatter: CommandEventFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver by updating the progress line.
func (observer *EmitterCommandEventObserver) CommandStarted(command execshell.ShellCommand) {
	if observer == nil || observer.reporter == nil {
		return
	}
	_ = observer.reporter.Progress(observer.formatter.BuildStartedMessage(command), observer.PermanentProgress)
}

// CommandCompleted implements execshell.CommandEventObserver by reporting the outcome.
func (observer *EmitterCommandEventObserver) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if observer == nil || observer.reporter == nil {
		return
	}
	if result.ExitCode == 0 {
		_ = observer.reporter.Trace(observer.formatter.BuildSuccessMessage(command))
		return
	}
	_ = observer.reporter.Warning(observer.formatter.BuildFailureMessage(command, result))
}

// CommandExecutionFailed implements execshell.CommandEventObserver by reporting the failure.
func (observer *EmitterCommandEventObserver) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if observer == nil || observer.reporter == nil {
		return
	}
	_ = observer.reporter.Warning(observer.formatter.BuildExecutionFailureMessage(command, failure))
}
