package emitter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/craftline/internal/logsink"
	"github.com/temirov/craftline/internal/terminal"
)

const (
	defaultQueueCapacityConstant         = 256
	carriageReturnConstant               = "\r"
	newlineConstant                      = "\n"
	truncationMarkerConstant             = "…"
	minimumUsableWidthConstant           = 4
	terminalWriteFailureMessageConstant  = "terminal write failed"
	logRecordWriteFailureMessageConstant = "log record write failed"
	writeFailureFieldNameConstant        = "error"
)

type instructionKind int

const (
	instructionKindRender instructionKind = iota
	instructionKindRepaint
	instructionKindClear
	instructionKindFlush
)

// renderInstruction is one unit of work for the writer goroutine: an emission
// to render, a spinner repaint, a line clear, or a flush marker.
type renderInstruction struct {
	kind        instructionKind
	emission    Emission
	repaintText string
	flushed     chan struct{}
}

// Printer serializes all terminal and log writes through one worker goroutine.
//
// Producers enqueue render instructions; the worker dequeues them in strict
// FIFO order and is the only code path touching the terminal writer and the
// log sink.
type Printer struct {
	descriptor       terminal.Descriptor
	terminalWriter   io.Writer
	sink             *logsink.Sink
	diagnosticLogger *zap.Logger

	instructionQueue chan renderInstruction
	workerFinished   chan struct{}
	stopOnce         sync.Once

	// worker-private render state
	openEphemeralText string
	ephemeralLineOpen bool
}

// NewPrinter constructs a printer and starts its writer goroutine.
func NewPrinter(descriptor terminal.Descriptor, terminalWriter io.Writer, sink *logsink.Sink, diagnosticLogger *zap.Logger, queueCapacity int) *Printer {
	if diagnosticLogger == nil {
		diagnosticLogger = zap.NewNop()
	}
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacityConstant
	}

	printer := &Printer{
		descriptor:       descriptor,
		terminalWriter:   terminalWriter,
		sink:             sink,
		diagnosticLogger: diagnosticLogger,
		instructionQueue: make(chan renderInstruction, queueCapacity),
		workerFinished:   make(chan struct{}),
	}

	go printer.runWriterLoop()

	return printer
}

// Enqueue appends an emission to the render queue.
func (printer *Printer) Enqueue(emission Emission) {
	printer.instructionQueue <- renderInstruction{kind: instructionKindRender, emission: emission}
}

// EnqueueRepaint appends a spinner repaint of the currently open ephemeral
// line, suffixed with the provided spinner text.
func (printer *Printer) EnqueueRepaint(repaintText string) {
	printer.instructionQueue <- renderInstruction{kind: instructionKindRepaint, repaintText: repaintText}
}

// EnqueueClear appends an instruction that erases any open ephemeral line.
func (printer *Printer) EnqueueClear() {
	printer.instructionQueue <- renderInstruction{kind: instructionKindClear}
}

// Flush blocks until every instruction enqueued before the call is rendered.
func (printer *Printer) Flush() {
	flushed := make(chan struct{})
	printer.instructionQueue <- renderInstruction{kind: instructionKindFlush, flushed: flushed}
	<-flushed
}

// Stop drains the queue and terminates the writer goroutine.
func (printer *Printer) Stop() {
	printer.stopOnce.Do(func() {
		close(printer.instructionQueue)
		<-printer.workerFinished
	})
}

func (printer *Printer) runWriterLoop() {
	defer close(printer.workerFinished)

	for instruction := range printer.instructionQueue {
		switch instruction.kind {
		case instructionKindFlush:
			close(instruction.flushed)
		case instructionKindRepaint:
			printer.renderRepaint(instruction.repaintText)
		case instructionKindClear:
			printer.clearEphemeralLine()
		case instructionKindRender:
			printer.renderEmission(instruction.emission)
		}
	}
}

func (printer *Printer) renderEmission(emission Emission) {
	if emission.Target != TargetTerminalOnly {
		if recordError := printer.sink.WriteRecord(emission.Timestamp, string(emission.Severity), emission.Text); recordError != nil {
			printer.diagnosticLogger.Error(logRecordWriteFailureMessageConstant, zap.NamedError(writeFailureFieldNameConstant, recordError))
		}
	}

	if emission.Target == TargetLogOnly {
		return
	}

	if printer.descriptor.IsInteractive && emission.Ephemeral {
		printer.paintEphemeralLine(emission.Text)
		return
	}

	printer.clearEphemeralLine()
	printer.writeToTerminal(emission.Text + newlineConstant)
}

func (printer *Printer) renderRepaint(repaintText string) {
	if !printer.descriptor.IsInteractive || !printer.ephemeralLineOpen {
		return
	}
	printer.writeToTerminal(carriageReturnConstant + printer.composeEphemeralLine(printer.openEphemeralText, repaintText))
}

func (printer *Printer) paintEphemeralLine(text string) {
	printer.openEphemeralText = text
	printer.ephemeralLineOpen = true
	printer.writeToTerminal(carriageReturnConstant + printer.composeEphemeralLine(text, ""))
}

func (printer *Printer) clearEphemeralLine() {
	if !printer.ephemeralLineOpen {
		return
	}
	blankLine := strings.Repeat(" ", printer.usableWidth())
	printer.writeToTerminal(carriageReturnConstant + blankLine + carriageReturnConstant)
	printer.ephemeralLineOpen = false
	printer.openEphemeralText = ""
}

// composeEphemeralLine truncates the message so that text plus spinner suffix
// always fit on one terminal row, then pads with spaces to erase leftovers
// from a longer previous paint.
func (printer *Printer) composeEphemeralLine(text string, suffix string) string {
	usableWidth := printer.usableWidth()
	availableForText := usableWidth - len([]rune(suffix))
	if availableForText < minimumUsableWidthConstant {
		availableForText = minimumUsableWidthConstant
	}

	textRunes := []rune(text)
	if len(textRunes) > availableForText {
		textRunes = append(textRunes[:availableForText-1], []rune(truncationMarkerConstant)...)
	}

	composedLine := string(textRunes) + suffix
	paddingWidth := usableWidth - len([]rune(composedLine))
	if paddingWidth > 0 {
		composedLine += strings.Repeat(" ", paddingWidth)
	}
	return composedLine
}

func (printer *Printer) usableWidth() int {
	// one column is reserved for the cursor itself
	usableWidth := printer.descriptor.Width - 1
	if usableWidth < minimumUsableWidthConstant {
		usableWidth = minimumUsableWidthConstant
	}
	return usableWidth
}

func (printer *Printer) writeToTerminal(payload string) {
	if printer.terminalWriter == nil {
		return
	}
	if _, writeError := fmt.Fprint(printer.terminalWriter, payload); writeError != nil {
		printer.diagnosticLogger.Error(terminalWriteFailureMessageConstant, zap.NamedError(writeFailureFieldNameConstant, writeError))
	}
}
