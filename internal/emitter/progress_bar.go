package emitter

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	operationOpenProgressBarNameConstant = "OpenProgressBar"
	operationAdvanceNameConstant         = "Advance"

	progressBarLineTemplateConstant    = "%s [%s%s] %s"
	progressBarRatioTemplateConstant   = "%v/%v"
	progressBarFilledGlyphConstant     = "="
	progressBarReservedColumnsConstant = 5

	negativeAdvanceMessageConstant  = "advance amount cannot be negative"
	nonPositiveTotalMessageConstant = "progress bar total must be positive"
)

// ProgressBar tracks bounded completion of one long-running step, such as a
// download with a known size.
//
// Like a stream operation it owns the ONGOING state: it is opened from IDLE,
// advanced any number of times, and must be closed on every exit path. The
// announcement line is logged once; the per-advance bar frames repaint the
// terminal only.
type ProgressBar struct {
	coordinator      *Emitter
	mutex            sync.Mutex
	labelText        string
	totalUnits       float64
	accumulatedUnits float64
}

// OpenProgressBar opens a bounded-progress operation, transitioning IDLE to
// ONGOING. Nested operations are disallowed, exactly as for OpenStream.
func (coordinator *Emitter) OpenProgressBar(labelText string, totalUnits float64) (*ProgressBar, error) {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if totalUnits <= 0 {
		return nil, errors.New(nonPositiveTotalMessageConstant)
	}
	if guardError := coordinator.requireState(operationOpenProgressBarNameConstant, idleStateRequirementConstant, StateIdle); guardError != nil {
		return nil, guardError
	}

	coordinator.state = StateOngoing
	// bar frames repaint on their own cadence, so no controller is attached
	coordinator.session = newSpinnerSession(labelText, false)

	announcementTarget := TargetLogOnly
	if coordinator.mode.ShowsProgress() {
		announcementTarget = TargetTerminalAndLog
	}
	ephemeral := coordinator.descriptor.IsInteractive && !coordinator.mode.DetailedOutput()
	coordinator.printer.Enqueue(newEmission(SeverityProgress, labelText, announcementTarget, ephemeral))

	return &ProgressBar{coordinator: coordinator, labelText: labelText, totalUnits: totalUnits}, nil
}

// Advance accumulates completed units and repaints the bar frame.
func (bar *ProgressBar) Advance(deltaUnits float64) error {
	if deltaUnits < 0 {
		return errors.New(negativeAdvanceMessageConstant)
	}

	bar.mutex.Lock()
	bar.accumulatedUnits += deltaUnits
	accumulatedUnits := bar.accumulatedUnits
	bar.mutex.Unlock()

	return bar.coordinator.emitBarFrame(bar.labelText, accumulatedUnits, bar.totalUnits)
}

// Close releases the operation, returning the emitter to IDLE and clearing
// the bar from the terminal.
func (bar *ProgressBar) Close() error {
	return bar.coordinator.releaseOperation()
}

func (coordinator *Emitter) emitBarFrame(labelText string, accumulatedUnits float64, totalUnits float64) error {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if guardError := coordinator.requireState(operationAdvanceNameConstant, ongoingStateRequirementConstant, StateOngoing); guardError != nil {
		return guardError
	}
	if !coordinator.descriptor.IsInteractive || !coordinator.mode.ShowsProgress() {
		return nil
	}

	barLine := composeProgressBarLine(labelText, accumulatedUnits, totalUnits, coordinator.descriptor.Width)
	coordinator.printer.Enqueue(newEmission(SeverityProgress, barLine, TargetTerminalOnly, true))
	return nil
}

// composeProgressBarLine renders "label [====    ] completed/total". When the
// terminal is too narrow for the bar, only the label remains.
func composeProgressBarLine(labelText string, accumulatedUnits float64, totalUnits float64, terminalWidth int) string {
	ratioText := fmt.Sprintf(progressBarRatioTemplateConstant, accumulatedUnits, totalUnits)
	barWidth := terminalWidth - len(labelText) - len(ratioText) - progressBarReservedColumnsConstant
	if barWidth <= 0 {
		return labelText
	}

	completionRatio := accumulatedUnits / totalUnits
	if completionRatio > 1 {
		completionRatio = 1
	}
	filledWidth := int(float64(barWidth) * completionRatio)
	filledSegment := strings.Repeat(progressBarFilledGlyphConstant, filledWidth)
	emptySegment := strings.Repeat(" ", barWidth-filledWidth)
	return fmt.Sprintf(progressBarLineTemplateConstant, labelText, filledSegment, emptySegment, ratioText)
}
