package emitter_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/emitter"
)

const (
	testApplicationNameConstant        = "craftline"
	testGreetingMessageConstant        = "craftline started"
	testInformationalMessageConstant   = "assets packaged"
	testOperationNameConstant          = "build"
	testProgressMessageConstant        = "compiling"
	testTraceMessageConstant           = "resolver cache primed"
	testQuietMessageCountConstant      = 10
	testCraftFailureMessageConstant    = "disk full"
	testCraftResolutionMessageConstant = "free space and retry"
	testCraftCauseMessageConstant      = "write /tmp/artifact: no space left on device"
	testSpinnerIntervalConstant        = 10 * time.Millisecond
	testSpinnerThresholdConstant       = 25 * time.Millisecond
	testSpinnerObservationConstant     = 150 * time.Millisecond
	testStreamChunkFirstConstant       = "fetching sour"
	testStreamChunkSecondConstant      = "ces\nunpacking\n"
	testStreamFirstLineConstant        = ":: fetching sources"
	testStreamSecondLineConstant       = ":: unpacking"
	testBarLabelConstant               = "downloading layers"
	testBarTotalUnitsConstant          = 100
	testBarPartialAdvanceConstant      = 25
	testBarRemainingAdvanceConstant    = 75
	testBarPartialFrameConstant        = "25/100"
	testBarCompleteFrameConstant       = "[==========] 100/100"
	testBarInvalidTotalMessageConstant = "progress bar total must be positive"
	testBarNegativeAdvanceMessageConst = "advance amount cannot be negative"
	testConcurrentFlusherCountConstant = 4
)

type emitterFixture struct {
	coordinator    *emitter.Emitter
	terminalBuffer *syncBuffer
	logFilePath    string
}

func newEmitterFixture(testInstance *testing.T, mode emitter.Mode, interactive bool) *emitterFixture {
	testInstance.Helper()

	terminalBuffer := &syncBuffer{}
	logFilePath := filepath.Join(testInstance.TempDir(), testRunLogFileNameConstant)

	descriptor := nonInteractiveDescriptor()
	if interactive {
		descriptor = interactiveDescriptor()
	}

	coordinator := emitter.New()
	initError := coordinator.Init(emitter.InitOptions{
		Mode:            mode,
		ApplicationName: testApplicationNameConstant,
		Greeting:        testGreetingMessageConstant,
		LogFilePath:     logFilePath,
		TerminalWriter:  terminalBuffer,
		Descriptor:      &descriptor,
		Spinner: emitter.SpinnerConfiguration{
			Interval:       testSpinnerIntervalConstant,
			StallThreshold: testSpinnerThresholdConstant,
		},
	})
	require.NoError(testInstance, initError)

	return &emitterFixture{coordinator: coordinator, terminalBuffer: terminalBuffer, logFilePath: logFilePath}
}

func (fixture *emitterFixture) logRecords(testInstance *testing.T) []string {
	testInstance.Helper()
	logContents, readError := os.ReadFile(fixture.logFilePath)
	require.NoError(testInstance, readError)
	return nonEmptyLines(string(logContents))
}

func TestInitTwiceFailsWithAlreadyInitialized(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)
	defer func() {
		require.NoError(testInstance, fixture.coordinator.EndedOK())
	}()

	secondInitError := fixture.coordinator.Init(emitter.InitOptions{Mode: emitter.ModeBrief})
	var alreadyInitialized clierrors.AlreadyInitializedError
	require.ErrorAs(testInstance, secondInitError, &alreadyInitialized)
}

func TestEmissionsBeforeInitFailWithInvalidState(testInstance *testing.T) {
	coordinator := emitter.New()

	var stateError *clierrors.InvalidStateError
	require.ErrorAs(testInstance, coordinator.Message(testInformationalMessageConstant), &stateError)
	require.ErrorAs(testInstance, coordinator.Trace(testTraceMessageConstant), &stateError)
	_, openError := coordinator.OpenStream(testOperationNameConstant)
	require.ErrorAs(testInstance, openError, &stateError)
}

func TestEveryEmissionProducesExactlyOneLogRecord(testInstance *testing.T) {
	testCases := []struct {
		name                string
		mode                emitter.Mode
		expectedRecordCount int
	}{
		// greeting + message + trace + operation announcement + progress;
		// detailed modes add the log destination announcement
		{name: "quiet_mode", mode: emitter.ModeQuiet, expectedRecordCount: 5},
		{name: "brief_mode", mode: emitter.ModeBrief, expectedRecordCount: 5},
		{name: "verbose_mode", mode: emitter.ModeVerbose, expectedRecordCount: 6},
		{name: "debug_mode", mode: emitter.ModeDebug, expectedRecordCount: 6},
		{name: "trace_mode", mode: emitter.ModeTrace, expectedRecordCount: 6},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newEmitterFixture(testInstance, testCase.mode, false)

			require.NoError(testInstance, fixture.coordinator.Message(testInformationalMessageConstant))
			require.NoError(testInstance, fixture.coordinator.Trace(testTraceMessageConstant))
			operationHandle, openError := fixture.coordinator.OpenStream(testOperationNameConstant)
			require.NoError(testInstance, openError)
			require.NoError(testInstance, fixture.coordinator.Progress(testProgressMessageConstant, false))
			require.NoError(testInstance, operationHandle.Close())
			require.NoError(testInstance, fixture.coordinator.EndedOK())

			require.Len(testInstance, fixture.logRecords(testInstance), testCase.expectedRecordCount)
		})
	}
}

func TestQuietModeShowsNothingButLogsEverything(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeQuiet, false)

	for messageIndex := 0; messageIndex < testQuietMessageCountConstant; messageIndex++ {
		require.NoError(testInstance, fixture.coordinator.Message(testInformationalMessageConstant))
	}
	require.NoError(testInstance, fixture.coordinator.EndedOK())

	require.Empty(testInstance, fixture.terminalBuffer.String())
	// greeting + ten messages
	require.Len(testInstance, fixture.logRecords(testInstance), testQuietMessageCountConstant+1)
}

func TestProgressRequiresOngoingOperation(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)
	defer func() {
		require.NoError(testInstance, fixture.coordinator.EndedOK())
	}()

	var stateError *clierrors.InvalidStateError
	require.ErrorAs(testInstance, fixture.coordinator.Progress(testProgressMessageConstant, false), &stateError)
}

func TestNestedOpenStreamFailsWithInvalidState(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	operationHandle, openError := fixture.coordinator.OpenStream(testOperationNameConstant)
	require.NoError(testInstance, openError)

	_, nestedOpenError := fixture.coordinator.OpenStream(testOperationNameConstant)
	var stateError *clierrors.InvalidStateError
	require.ErrorAs(testInstance, nestedOpenError, &stateError)

	require.NoError(testInstance, operationHandle.Close())
	require.Equal(testInstance, emitter.StateIdle, fixture.coordinator.State())
	require.NoError(testInstance, fixture.coordinator.EndedOK())
}

func TestReleaseReturnsToIdleOnFailurePaths(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	failingHandlerBody := func() (handlerError error) {
		operationHandle, openError := fixture.coordinator.OpenStream(testOperationNameConstant)
		require.NoError(testInstance, openError)
		defer func() {
			require.NoError(testInstance, operationHandle.Close())
		}()
		return errors.New(testCraftCauseMessageConstant)
	}

	require.Error(testInstance, failingHandlerBody())
	require.Equal(testInstance, emitter.StateIdle, fixture.coordinator.State())
	require.NoError(testInstance, fixture.coordinator.EndedOK())
}

func TestErrorStopsEmitterAndSplitsDetailBetweenTerminalAndLog(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	operationHandle, openError := fixture.coordinator.OpenStream(testOperationNameConstant)
	require.NoError(testInstance, openError)

	craftFailure := &clierrors.CraftError{
		Message:    testCraftFailureMessageConstant,
		Resolution: testCraftResolutionMessageConstant,
		Cause:      errors.New(testCraftCauseMessageConstant),
	}
	require.NoError(testInstance, fixture.coordinator.Error(craftFailure))
	require.Equal(testInstance, emitter.StateStopped, fixture.coordinator.State())

	terminalOutput := fixture.terminalBuffer.String()
	require.Contains(testInstance, terminalOutput, testCraftFailureMessageConstant)
	require.Contains(testInstance, terminalOutput, testCraftResolutionMessageConstant)
	require.NotContains(testInstance, terminalOutput, testCraftCauseMessageConstant)

	logContents := strings.Join(fixture.logRecords(testInstance), "\n")
	require.Contains(testInstance, logContents, testCraftFailureMessageConstant)
	require.Contains(testInstance, logContents, testCraftCauseMessageConstant)

	var stateError *clierrors.InvalidStateError
	require.ErrorAs(testInstance, fixture.coordinator.Message(testInformationalMessageConstant), &stateError)
	require.NoError(testInstance, operationHandle.Close())
}

func TestEndedOKFlushesQueueBeforeReturning(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	require.NoError(testInstance, fixture.coordinator.Message(testInformationalMessageConstant))
	require.NoError(testInstance, fixture.coordinator.EndedOK())

	logContents := strings.Join(fixture.logRecords(testInstance), "\n")
	require.Contains(testInstance, logContents, testInformationalMessageConstant)
	require.NoError(testInstance, fixture.coordinator.EndedOK())
}

func TestSpinnerEmitsStillWorkingIndicatorWithoutDuplicateLines(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, true)

	operationHandle, openError := fixture.coordinator.OpenStream(testOperationNameConstant)
	require.NoError(testInstance, openError)
	for progressIndex := 0; progressIndex < 3; progressIndex++ {
		require.NoError(testInstance, fixture.coordinator.Progress(testProgressMessageConstant, false))
	}

	time.Sleep(testSpinnerObservationConstant)

	require.NoError(testInstance, operationHandle.Close())
	require.NoError(testInstance, fixture.coordinator.EndedOK())

	terminalOutput := fixture.terminalBuffer.String()
	require.Contains(testInstance, terminalOutput, testProgressMessageConstant)
	// the still-working indicator carries an elapsed-seconds suffix
	require.Contains(testInstance, terminalOutput, "s)")
	// repaints overwrite in place, so no permanent duplicate lines appear
	require.NotContains(testInstance, terminalOutput, testProgressMessageConstant+"\n"+testProgressMessageConstant)
	// releasing clears the spinner row completely
	require.True(testInstance, strings.HasSuffix(terminalOutput, "\r"))

	// greeting + operation announcement + three progress updates
	require.Len(testInstance, fixture.logRecords(testInstance), 5)
}

func TestOperationStreamAssemblesLinesAcrossChunks(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeVerbose, false)

	operationHandle, openError := fixture.coordinator.OpenStream(testOperationNameConstant)
	require.NoError(testInstance, openError)

	firstChunkLength, firstWriteError := operationHandle.Write([]byte(testStreamChunkFirstConstant))
	require.NoError(testInstance, firstWriteError)
	require.Equal(testInstance, len(testStreamChunkFirstConstant), firstChunkLength)

	secondChunkLength, secondWriteError := operationHandle.Write([]byte(testStreamChunkSecondConstant))
	require.NoError(testInstance, secondWriteError)
	require.Equal(testInstance, len(testStreamChunkSecondConstant), secondChunkLength)

	require.NoError(testInstance, operationHandle.Close())
	require.NoError(testInstance, fixture.coordinator.EndedOK())

	terminalOutput := fixture.terminalBuffer.String()
	require.Contains(testInstance, terminalOutput, testStreamFirstLineConstant)
	require.Contains(testInstance, terminalOutput, testStreamSecondLineConstant)

	logContents := strings.Join(fixture.logRecords(testInstance), "\n")
	require.Contains(testInstance, logContents, testStreamFirstLineConstant)
	require.Contains(testInstance, logContents, testStreamSecondLineConstant)
}

func TestPauseAndResumeBracketTerminalHandoff(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	operationHandle, openError := fixture.coordinator.OpenStream(testOperationNameConstant)
	require.NoError(testInstance, openError)

	require.NoError(testInstance, fixture.coordinator.Pause())
	require.Equal(testInstance, emitter.StatePaused, fixture.coordinator.State())

	var stateError *clierrors.InvalidStateError
	require.ErrorAs(testInstance, fixture.coordinator.Progress(testProgressMessageConstant, false), &stateError)

	require.NoError(testInstance, fixture.coordinator.Resume())
	require.Equal(testInstance, emitter.StateOngoing, fixture.coordinator.State())
	require.NoError(testInstance, fixture.coordinator.Progress(testProgressMessageConstant, false))

	require.NoError(testInstance, operationHandle.Close())
	require.NoError(testInstance, fixture.coordinator.EndedOK())
}

func TestProgressBarRepaintsFramesAndLogsAnnouncementOnce(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, true)

	progressBar, openError := fixture.coordinator.OpenProgressBar(testBarLabelConstant, testBarTotalUnitsConstant)
	require.NoError(testInstance, openError)
	require.Equal(testInstance, emitter.StateOngoing, fixture.coordinator.State())

	require.NoError(testInstance, progressBar.Advance(testBarPartialAdvanceConstant))
	require.NoError(testInstance, progressBar.Advance(testBarRemainingAdvanceConstant))
	require.NoError(testInstance, progressBar.Close())
	require.Equal(testInstance, emitter.StateIdle, fixture.coordinator.State())
	require.NoError(testInstance, fixture.coordinator.EndedOK())

	terminalOutput := fixture.terminalBuffer.String()
	require.Contains(testInstance, terminalOutput, testBarPartialFrameConstant)
	require.Contains(testInstance, terminalOutput, testBarCompleteFrameConstant)

	// greeting + announcement; the per-advance frames never reach the log
	logRecords := fixture.logRecords(testInstance)
	require.Len(testInstance, logRecords, 2)
	require.Contains(testInstance, logRecords[1], testBarLabelConstant)
}

func TestProgressBarFramesStayOffNonInteractiveTerminals(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	progressBar, openError := fixture.coordinator.OpenProgressBar(testBarLabelConstant, testBarTotalUnitsConstant)
	require.NoError(testInstance, openError)
	require.NoError(testInstance, progressBar.Advance(testBarPartialAdvanceConstant))
	require.NoError(testInstance, progressBar.Close())
	require.NoError(testInstance, fixture.coordinator.EndedOK())

	terminalOutput := fixture.terminalBuffer.String()
	require.Contains(testInstance, terminalOutput, testBarLabelConstant)
	require.NotContains(testInstance, terminalOutput, testBarPartialFrameConstant)
}

func TestProgressBarRejectsMisuse(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	_, invalidTotalError := fixture.coordinator.OpenProgressBar(testBarLabelConstant, 0)
	require.EqualError(testInstance, invalidTotalError, testBarInvalidTotalMessageConstant)

	progressBar, openError := fixture.coordinator.OpenProgressBar(testBarLabelConstant, testBarTotalUnitsConstant)
	require.NoError(testInstance, openError)

	require.EqualError(testInstance, progressBar.Advance(-1), testBarNegativeAdvanceMessageConst)

	_, nestedOpenError := fixture.coordinator.OpenStream(testOperationNameConstant)
	var stateError *clierrors.InvalidStateError
	require.ErrorAs(testInstance, nestedOpenError, &stateError)

	require.NoError(testInstance, progressBar.Close())
	require.ErrorAs(testInstance, progressBar.Advance(testBarPartialAdvanceConstant), &stateError)
	require.NoError(testInstance, fixture.coordinator.EndedOK())
}

func TestFlushSerializesWithShutdown(testInstance *testing.T) {
	fixture := newEmitterFixture(testInstance, emitter.ModeBrief, false)

	var flushWorkers sync.WaitGroup
	for workerIndex := 0; workerIndex < testConcurrentFlusherCountConstant; workerIndex++ {
		flushWorkers.Add(1)
		go func() {
			defer flushWorkers.Done()
			for {
				if flushError := fixture.coordinator.Flush(); flushError != nil {
					return
				}
			}
		}()
	}

	require.NoError(testInstance, fixture.coordinator.EndedOK())
	flushWorkers.Wait()
	require.Equal(testInstance, emitter.StateStopped, fixture.coordinator.State())
}

func TestParseModeAcceptsKnownNamesOnly(testInstance *testing.T) {
	for _, modeName := range emitter.ModeNames() {
		parsedMode, parseError := emitter.ParseMode(strings.ToUpper(modeName))
		require.NoError(testInstance, parseError)
		require.Equal(testInstance, modeName, string(parsedMode))
	}

	_, parseError := emitter.ParseMode("loud")
	require.Error(testInstance, parseError)
}
