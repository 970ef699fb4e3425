package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/dispatch"
	"github.com/temirov/craftline/internal/emitter"
	"github.com/temirov/craftline/internal/terminal"
)

const (
	testRootUseConstant              = "craftline"
	testRootShortDescriptionConstant = "test application"
	testHandlerNameConstant          = "deploy"
	testHandlerHelpTextConstant      = "deploy the artifact"
	testGroupNameConstant            = "script"
	testGroupHelpTextConstant        = "runbook commands"
	testHandlerMessageConstant       = "artifact deployed"
	testHandlerFlagNameConstant      = "target"
	testCraftFailureMessageConstant  = "deployment rejected"
	testInternalFailureMessage       = "unexpected marshal failure"
	testUnknownCommandNameConstant   = "teleport"
	testUsageProblemMessageConstant  = "missing runbook path"
	testDispatcherLogFileName        = "run.log"
	testDispatcherTerminalWidth      = 80
)

type stubCommandHandler struct {
	name        string
	helpText    string
	runError    error
	runBody     func(executionContext context.Context, arguments []string) error
	flagBound   bool
	flagValue   string
	invocations int
}

func (handler *stubCommandHandler) Name() string     { return handler.name }
func (handler *stubCommandHandler) HelpText() string { return handler.helpText }

func (handler *stubCommandHandler) FillArguments(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&handler.flagValue, testHandlerFlagNameConstant, "", testHandlerHelpTextConstant)
	handler.flagBound = true
}

func (handler *stubCommandHandler) Run(executionContext context.Context, arguments []string) error {
	handler.invocations++
	if handler.runBody != nil {
		return handler.runBody(executionContext, arguments)
	}
	return handler.runError
}

type dispatcherFixture struct {
	dispatcher     *dispatch.Dispatcher
	coordinator    *emitter.Emitter
	terminalBuffer *safeBuffer
	logFilePath    string
}

type safeBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (buffer *safeBuffer) Write(payload []byte) (int, error) {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.Write(payload)
}

func (buffer *safeBuffer) String() string {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.String()
}

func newDispatcherFixture(testInstance *testing.T, handlers ...dispatch.CommandHandler) *dispatcherFixture {
	testInstance.Helper()

	coordinator := emitter.New()
	terminalBuffer := &safeBuffer{}
	logFilePath := filepath.Join(testInstance.TempDir(), testDispatcherLogFileName)
	descriptor := terminal.Descriptor{IsInteractive: false, Width: testDispatcherTerminalWidth}

	dispatcher, constructionError := dispatch.NewDispatcher(dispatch.Options{
		Use:              testRootUseConstant,
		ShortDescription: testRootShortDescriptionConstant,
		OutputEmitter:    coordinator,
		Initialize: func(command *cobra.Command) error {
			if coordinator.State() != emitter.StateUnset {
				return nil
			}
			return coordinator.Init(emitter.InitOptions{
				Mode:           emitter.ModeBrief,
				LogFilePath:    logFilePath,
				TerminalWriter: terminalBuffer,
				Descriptor:     &descriptor,
			})
		},
	})
	require.NoError(testInstance, constructionError)
	dispatcher.Register(handlers...)

	return &dispatcherFixture{
		dispatcher:     dispatcher,
		coordinator:    coordinator,
		terminalBuffer: terminalBuffer,
		logFilePath:    logFilePath,
	}
}

func TestDispatcherRunsHandlerAndFinalizesEmitter(testInstance *testing.T) {
	var fixture *dispatcherFixture
	handler := &stubCommandHandler{
		name:     testHandlerNameConstant,
		helpText: testHandlerHelpTextConstant,
		runBody: func(executionContext context.Context, arguments []string) error {
			return fixture.coordinator.Message(testHandlerMessageConstant)
		},
	}
	fixture = newDispatcherFixture(testInstance, handler)

	executionError := fixture.dispatcher.Execute(context.Background(), []string{testHandlerNameConstant})

	require.NoError(testInstance, executionError)
	require.Equal(testInstance, 1, handler.invocations)
	require.True(testInstance, handler.flagBound)
	require.Equal(testInstance, emitter.StateStopped, fixture.coordinator.State())
	require.Contains(testInstance, fixture.terminalBuffer.String(), testHandlerMessageConstant)
	require.Equal(testInstance, 0, clierrors.ResolveExitCode(executionError))
}

func TestDispatcherPresentsCraftErrorsThroughEmitter(testInstance *testing.T) {
	handler := &stubCommandHandler{
		name:     testHandlerNameConstant,
		helpText: testHandlerHelpTextConstant,
		runError: clierrors.NewCraftError(testCraftFailureMessageConstant),
	}
	fixture := newDispatcherFixture(testInstance, handler)

	executionError := fixture.dispatcher.Execute(context.Background(), []string{testHandlerNameConstant})

	require.Error(testInstance, executionError)
	require.Equal(testInstance, 1, clierrors.ResolveExitCode(executionError))
	require.Equal(testInstance, emitter.StateStopped, fixture.coordinator.State())
	require.Contains(testInstance, fixture.terminalBuffer.String(), testCraftFailureMessageConstant)
}

func TestDispatcherWrapsInternalErrorsBeforePresenting(testInstance *testing.T) {
	handler := &stubCommandHandler{
		name:     testHandlerNameConstant,
		helpText: testHandlerHelpTextConstant,
		runError: errors.New(testInternalFailureMessage),
	}
	fixture := newDispatcherFixture(testInstance, handler)

	executionError := fixture.dispatcher.Execute(context.Background(), []string{testHandlerNameConstant})

	require.Error(testInstance, executionError)
	require.Equal(testInstance, 1, clierrors.ResolveExitCode(executionError))
	require.Contains(testInstance, fixture.terminalBuffer.String(), testInternalFailureMessage)
}

func TestDispatcherMapsUnknownCommandsToUsageErrors(testInstance *testing.T) {
	handler := &stubCommandHandler{name: testHandlerNameConstant, helpText: testHandlerHelpTextConstant}
	fixture := newDispatcherFixture(testInstance, handler)

	executionError := fixture.dispatcher.Execute(context.Background(), []string{testUnknownCommandNameConstant})

	var usageError *clierrors.UsageError
	require.ErrorAs(testInstance, executionError, &usageError)
	require.Equal(testInstance, 2, clierrors.ResolveExitCode(executionError))
}

func TestDispatcherReturnsUsageErrorsFromHandlersWithCleanShutdown(testInstance *testing.T) {
	handler := &stubCommandHandler{
		name:     testHandlerNameConstant,
		helpText: testHandlerHelpTextConstant,
		runError: clierrors.NewUsageError(testHandlerHelpTextConstant),
	}
	fixture := newDispatcherFixture(testInstance, handler)

	executionError := fixture.dispatcher.Execute(context.Background(), []string{testHandlerNameConstant})

	require.Equal(testInstance, 2, clierrors.ResolveExitCode(executionError))
	require.Equal(testInstance, emitter.StateStopped, fixture.coordinator.State())
}

func TestDispatcherRecordsUsageErrorsInRunLog(testInstance *testing.T) {
	handler := &stubCommandHandler{
		name:     testHandlerNameConstant,
		helpText: testHandlerHelpTextConstant,
		runError: clierrors.NewUsageError(testUsageProblemMessageConstant),
	}
	fixture := newDispatcherFixture(testInstance, handler)

	executionError := fixture.dispatcher.Execute(context.Background(), []string{testHandlerNameConstant})

	require.Equal(testInstance, 2, clierrors.ResolveExitCode(executionError))
	require.Equal(testInstance, emitter.StateStopped, fixture.coordinator.State())

	logContents, readError := os.ReadFile(fixture.logFilePath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(logContents), testUsageProblemMessageConstant)
	// the usage message stays in the log; the terminal report belongs to the entry point
	require.NotContains(testInstance, fixture.terminalBuffer.String(), testUsageProblemMessageConstant)
}

func TestDispatcherPropagatesStateViolationsUnchanged(testInstance *testing.T) {
	stateViolation := clierrors.NewInvalidStateError(testHandlerNameConstant, "ONGOING", "IDLE")
	handler := &stubCommandHandler{
		name:     testHandlerNameConstant,
		helpText: testHandlerHelpTextConstant,
		runError: stateViolation,
	}
	fixture := newDispatcherFixture(testInstance, handler)

	executionError := fixture.dispatcher.Execute(context.Background(), []string{testHandlerNameConstant})

	var reportedViolation *clierrors.InvalidStateError
	require.ErrorAs(testInstance, executionError, &reportedViolation)
	require.Equal(testInstance, stateViolation, reportedViolation)
}

func TestDispatcherGroupsCommandsUnderSharedWord(testInstance *testing.T) {
	groupedHandler := &stubCommandHandler{name: testHandlerNameConstant, helpText: testHandlerHelpTextConstant}

	coordinator := emitter.New()
	dispatcher, constructionError := dispatch.NewDispatcher(dispatch.Options{
		Use:              testRootUseConstant,
		ShortDescription: testRootShortDescriptionConstant,
		OutputEmitter:    coordinator,
	})
	require.NoError(testInstance, constructionError)
	dispatcher.RegisterGroup(testGroupNameConstant, testGroupHelpTextConstant, groupedHandler)

	executionError := dispatcher.Execute(context.Background(), []string{testGroupNameConstant, testHandlerNameConstant})

	require.NoError(testInstance, executionError)
	require.Equal(testInstance, 1, groupedHandler.invocations)
}
