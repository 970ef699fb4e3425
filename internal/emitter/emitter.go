package emitter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/logsink"
	"github.com/temirov/craftline/internal/terminal"
)

const (
	stateUnsetNameConstant   = "UNSET"
	stateIdleNameConstant    = "IDLE"
	stateOngoingNameConstant = "ONGOING"
	statePausedNameConstant  = "PAUSED"
	stateStoppedNameConstant = "STOPPED"

	operationMessageNameConstant    = "Message"
	operationWarningNameConstant    = "Warning"
	operationProgressNameConstant   = "Progress"
	operationTraceNameConstant      = "Trace"
	operationOpenStreamNameConstant = "OpenStream"
	operationPauseNameConstant      = "Pause"
	operationResumeNameConstant     = "Resume"
	operationErrorNameConstant      = "Error"
	operationEndedOKNameConstant    = "EndedOK"
	operationFlushNameConstant      = "Flush"
	operationReleaseNameConstant    = "Release"

	initializedStateRequirementConstant = "an initialized emitter"
	idleStateRequirementConstant        = stateIdleNameConstant
	ongoingStateRequirementConstant     = stateOngoingNameConstant
	pausedStateRequirementConstant      = statePausedNameConstant

	loggingDestinationTemplateConstant = "Logging execution to %q"
	fullLogReferenceTemplateConstant   = "Full execution log: %q"
	streamLinePrefixConstant           = ":: "
)

// State is the emitter's operation state machine value.
type State string

// Emitter lifecycle states. Exactly one state exists per emitter; STOPPED is
// terminal within a process.
const (
	StateUnset   State = State(stateUnsetNameConstant)
	StateIdle    State = State(stateIdleNameConstant)
	StateOngoing State = State(stateOngoingNameConstant)
	StatePaused  State = State(statePausedNameConstant)
	StateStopped State = State(stateStoppedNameConstant)
)

// InitOptions configures an emitter at initialization time.
//
// Zero values select sensible defaults: the terminal writer defaults to
// standard error, the capability descriptor is probed from it, and the log
// file path is resolved through the application log directory convention.
type InitOptions struct {
	Mode             Mode
	ApplicationName  string
	Greeting         string
	LogFilePath      string
	LogDirectory     string
	MaximumLogFiles  int
	TerminalWriter   io.Writer
	Descriptor       *terminal.Descriptor
	DiagnosticLogger *zap.Logger
	Spinner          SpinnerConfiguration
	QueueCapacity    int
}

// Emitter is the public-facing output coordinator.
//
// Application code never writes to the terminal or the run log directly; it
// calls the emitter, which validates the operation state and enqueues render
// instructions for the writer goroutine.
type Emitter struct {
	mutex sync.Mutex

	state          State
	mode           Mode
	descriptor     terminal.Descriptor
	printer        *Printer
	sink           *logsink.Sink
	session        *spinnerSession
	spinnerTunings SpinnerConfiguration
	logFilePath    string
}

// New constructs an uninitialized emitter.
func New() *Emitter {
	return &Emitter{state: StateUnset}
}

// Init transitions the emitter from UNSET to IDLE exactly once.
//
// A second call fails with AlreadyInitializedError: double setup is a
// programming error in the embedding application.
func (coordinator *Emitter) Init(initOptions InitOptions) error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if coordinator.state != StateUnset {
		return clierrors.AlreadyInitializedError{}
	}

	logFilePath := initOptions.LogFilePath
	if len(logFilePath) == 0 {
		pathResolver := logsink.NewPathResolver(initOptions.ApplicationName, initOptions.LogDirectory, initOptions.MaximumLogFiles)
		resolvedPath, resolveError := pathResolver.ResolveLogFilePath(time.Now())
		if resolveError != nil {
			return resolveError
		}
		logFilePath = resolvedPath
	}

	sink, sinkError := logsink.OpenSink(logFilePath)
	if sinkError != nil {
		return sinkError
	}

	terminalWriter := initOptions.TerminalWriter
	if terminalWriter == nil {
		terminalWriter = os.Stderr
	}

	descriptor := terminal.Descriptor{}
	if initOptions.Descriptor != nil {
		descriptor = *initOptions.Descriptor
	} else if standardErrorFile, isFile := terminalWriter.(*os.File); isFile {
		descriptor = terminal.Probe(standardErrorFile)
	}

	coordinator.mode = initOptions.Mode
	coordinator.descriptor = descriptor
	coordinator.sink = sink
	coordinator.logFilePath = logFilePath
	coordinator.spinnerTunings = initOptions.Spinner.withDefaults()
	coordinator.printer = NewPrinter(descriptor, terminalWriter, sink, initOptions.DiagnosticLogger, initOptions.QueueCapacity)
	coordinator.state = StateIdle

	coordinator.emitGreeting(initOptions.Greeting)

	return nil
}

func (coordinator *Emitter) emitGreeting(greeting string) {
	if len(greeting) == 0 {
		return
	}

	greetingTarget := TargetLogOnly
	if coordinator.mode.DetailedOutput() {
		greetingTarget = TargetTerminalAndLog
	}
	coordinator.printer.Enqueue(newEmission(SeverityInfo, greeting, greetingTarget, false))

	if coordinator.mode.DetailedOutput() {
		destinationText := fmt.Sprintf(loggingDestinationTemplateConstant, coordinator.logFilePath)
		coordinator.printer.Enqueue(newEmission(SeverityInfo, destinationText, TargetTerminalAndLog, false))
	}
}

// Mode reports the verbosity mode selected at initialization.
func (coordinator *Emitter) Mode() Mode {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.mode
}

// State reports the current operation state.
func (coordinator *Emitter) State() State {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.state
}

// LogFilePath reports the location of the run log once initialized.
func (coordinator *Emitter) LogFilePath() string {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.logFilePath
}

// Message emits an informational line. Valid in any initialized, non-stopped
// state; always logged, shown on the terminal unless the mode is QUIET.
func (coordinator *Emitter) Message(text string) error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireActive(operationMessageNameConstant); guardError != nil {
		return guardError
	}

	messageTarget := TargetLogOnly
	if coordinator.mode.ShowsMessages() {
		messageTarget = TargetTerminalAndLog
	}
	coordinator.printer.Enqueue(newEmission(SeverityInfo, text, messageTarget, false))
	return nil
}

// Warning emits a warning line with the same visibility rules as Message.
func (coordinator *Emitter) Warning(text string) error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireActive(operationWarningNameConstant); guardError != nil {
		return guardError
	}

	warningTarget := TargetLogOnly
	if coordinator.mode.ShowsMessages() {
		warningTarget = TargetTerminalAndLog
	}
	coordinator.printer.Enqueue(newEmission(SeverityWarning, text, warningTarget, false))
	return nil
}

// Progress updates the text of the active operation. It requires the ONGOING
// state: progress outside an operation is a programming error.
//
// On interactive terminals the update repaints the current line and feeds the
// spinner session; on redirected output it emits a plain permanent line. The
// permanent flag forces a persistent line even when interactive.
func (coordinator *Emitter) Progress(text string, permanent bool) error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireState(operationProgressNameConstant, ongoingStateRequirementConstant, StateOngoing); guardError != nil {
		return guardError
	}

	progressTarget := TargetLogOnly
	if coordinator.mode.ShowsProgress() {
		progressTarget = TargetTerminalAndLog
	}

	ephemeral := coordinator.descriptor.IsInteractive && !permanent && !coordinator.mode.DetailedOutput()
	coordinator.session.updateText(text)
	coordinator.printer.Enqueue(newEmission(SeverityProgress, text, progressTarget, ephemeral))
	return nil
}

// Trace emits developer-facing detail: always logged, shown on the terminal
// only in DEBUG and TRACE modes.
func (coordinator *Emitter) Trace(text string) error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireActive(operationTraceNameConstant); guardError != nil {
		return guardError
	}

	traceTarget := TargetLogOnly
	if coordinator.mode.ShowsTrace() {
		traceTarget = TargetTerminalAndLog
	}
	coordinator.printer.Enqueue(newEmission(SeverityTrace, text, traceTarget, false))
	return nil
}

// OpenStream opens a scoped operation, transitioning IDLE to ONGOING.
//
// The returned handle must be released on every exit path; releasing returns
// the state to IDLE and finalizes the spinner session. Nested operations are
// disallowed: opening while ONGOING fails with InvalidStateError.
func (coordinator *Emitter) OpenStream(operationName string) (*Operation, error) {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireState(operationOpenStreamNameConstant, idleStateRequirementConstant, StateIdle); guardError != nil {
		return nil, guardError
	}

	coordinator.state = StateOngoing
	coordinator.session = newSpinnerSession(operationName, coordinator.descriptor.IsInteractive)
	if coordinator.descriptor.IsInteractive {
		go runSpinnerController(coordinator.session, coordinator.printer, coordinator.spinnerTunings)
	}

	progressTarget := TargetLogOnly
	if coordinator.mode.ShowsProgress() {
		progressTarget = TargetTerminalAndLog
	}
	ephemeral := coordinator.descriptor.IsInteractive && !coordinator.mode.DetailedOutput()
	coordinator.printer.Enqueue(newEmission(SeverityProgress, operationName, progressTarget, ephemeral))

	return &Operation{coordinator: coordinator, name: operationName}, nil
}

// Pause suspends an ongoing operation so an external process may own the
// terminal: the spinner stops and the queue is drained before returning.
func (coordinator *Emitter) Pause() error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireState(operationPauseNameConstant, ongoingStateRequirementConstant, StateOngoing); guardError != nil {
		return guardError
	}

	coordinator.session.cancel()
	coordinator.state = StatePaused

	// The drain stays under the lock: a concurrent Error or EndedOK must not
	// close the instruction channel between the state change and the flush
	// marker. The writer goroutine never takes this mutex, so no deadlock.
	coordinator.printer.Flush()
	return nil
}

// Resume restarts the spinner session after a Pause.
func (coordinator *Emitter) Resume() error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireState(operationResumeNameConstant, pausedStateRequirementConstant, StatePaused); guardError != nil {
		return guardError
	}

	coordinator.session = newSpinnerSession(coordinator.session.currentText, coordinator.descriptor.IsInteractive)
	if coordinator.descriptor.IsInteractive {
		go runSpinnerController(coordinator.session, coordinator.printer, coordinator.spinnerTunings)
	}
	coordinator.state = StateOngoing
	return nil
}

// Error reports an operation-ending failure and stops the emitter.
//
// The terminal receives the short summary plus any resolution hint; the full
// diagnostic detail, including the chained cause, goes only to the run log
// unless a debugging mode is active. The state becomes STOPPED.
func (coordinator *Emitter) Error(craftError *clierrors.CraftError) error {
	coordinator.mutex.Lock()

	if guardError := coordinator.requireActive(operationErrorNameConstant); guardError != nil {
		coordinator.mutex.Unlock()
		return guardError
	}

	if coordinator.session != nil {
		coordinator.session.cancel()
		coordinator.session = nil
	}

	detailTarget := TargetLogOnly
	if coordinator.mode.DetailedOutput() {
		detailTarget = TargetTerminalAndLog
	}

	terminalLines := map[string]struct{}{}
	for _, terminalLine := range craftError.TerminalLines() {
		terminalLines[terminalLine] = struct{}{}
	}

	for _, diagnosticLine := range craftError.LogLines() {
		lineTarget := detailTarget
		if _, shownOnTerminal := terminalLines[diagnosticLine]; shownOnTerminal {
			lineTarget = TargetTerminalAndLog
		}
		coordinator.printer.Enqueue(newEmission(SeverityError, diagnosticLine, lineTarget, false))
	}
	logReferenceText := fmt.Sprintf(fullLogReferenceTemplateConstant, coordinator.logFilePath)
	coordinator.printer.Enqueue(newEmission(SeverityError, logReferenceText, TargetTerminalAndLog, false))

	coordinator.state = StateStopped
	printer := coordinator.printer
	sink := coordinator.sink
	coordinator.mutex.Unlock()

	printer.Stop()
	return sink.Close()
}

// EndedOK shuts the emitter down gracefully from IDLE or ONGOING, draining
// the render queue synchronously so no output is lost if the process exits
// immediately afterwards. Calling it on an already stopped emitter is a no-op.
func (coordinator *Emitter) EndedOK() error {
	coordinator.mutex.Lock()

	if coordinator.state == StateStopped {
		coordinator.mutex.Unlock()
		return nil
	}
	if coordinator.state == StateUnset {
		coordinator.mutex.Unlock()
		return clierrors.NewInvalidStateError(operationEndedOKNameConstant, initializedStateRequirementConstant, string(StateUnset))
	}

	if coordinator.session != nil {
		coordinator.session.cancel()
		coordinator.session = nil
	}

	coordinator.state = StateStopped
	printer := coordinator.printer
	sink := coordinator.sink
	coordinator.mutex.Unlock()

	printer.Stop()
	return sink.Close()
}

// Flush blocks until every emission enqueued so far has been rendered. It is
// used before ambiguous I/O such as handing the terminal to a subprocess.
func (coordinator *Emitter) Flush() error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireActive(operationFlushNameConstant); guardError != nil {
		return guardError
	}

	// Held across the drain so a concurrent shutdown cannot close the
	// instruction channel under the flush marker send.
	coordinator.printer.Flush()
	return nil
}

func (coordinator *Emitter) requireActive(operationName string) error {
	switch coordinator.state {
	case StateUnset:
		return clierrors.NewInvalidStateError(operationName, initializedStateRequirementConstant, string(StateUnset))
	case StateStopped:
		return clierrors.NewInvalidStateError(operationName, initializedStateRequirementConstant, string(StateStopped))
	default:
		return nil
	}
}

func (coordinator *Emitter) requireState(operationName string, requirementLabel string, requiredState State) error {
	if activeError := coordinator.requireActive(operationName); activeError != nil {
		return activeError
	}
	if coordinator.state != requiredState {
		return clierrors.NewInvalidStateError(operationName, requirementLabel, string(coordinator.state))
	}
	return nil
}

// releaseOperation implements the ONGOING -> IDLE transition for Operation.
func (coordinator *Emitter) releaseOperation() error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	// tolerate release after Error or EndedOK so deferred closes stay safe
	if coordinator.state == StateStopped {
		return nil
	}
	if coordinator.state != StateOngoing && coordinator.state != StatePaused {
		return clierrors.NewInvalidStateError(operationReleaseNameConstant, ongoingStateRequirementConstant, string(coordinator.state))
	}

	if coordinator.session != nil {
		coordinator.session.cancel()
		coordinator.session = nil
	}
	coordinator.printer.EnqueueClear()
	coordinator.state = StateIdle
	return nil
}

// emitStreamLine renders one assembled subprocess output line.
func (coordinator *Emitter) emitStreamLine(lineText string) {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if coordinator.state != StateOngoing && coordinator.state != StatePaused {
		return
	}

	streamTarget := TargetLogOnly
	if coordinator.mode.ShowsStreams() {
		streamTarget = TargetTerminalAndLog
	}
	coordinator.printer.Enqueue(newEmission(SeverityInfo, streamLinePrefixConstant+lineText, streamTarget, false))
}
