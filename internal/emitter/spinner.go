package emitter

import (
	"fmt"
	"sync"
	"time"
)

const (
	defaultSpinnerIntervalConstant       = 100 * time.Millisecond
	defaultSpinnerStallThresholdConstant = 2 * time.Second
	spinnerSuffixTemplateConstant        = " %s (%.1fs)"
)

var spinnerGlyphs = []string{"-", "\\", "|", "/"}

// SpinnerConfiguration carries the tunable timing of the spinner controller.
//
// Interval is the repaint cadence; StallThreshold is how long the progress
// text must remain unchanged before the "still working" indicator appears.
type SpinnerConfiguration struct {
	Interval       time.Duration
	StallThreshold time.Duration
}

func (configuration SpinnerConfiguration) withDefaults() SpinnerConfiguration {
	if configuration.Interval <= 0 {
		configuration.Interval = defaultSpinnerIntervalConstant
	}
	if configuration.StallThreshold <= 0 {
		configuration.StallThreshold = defaultSpinnerStallThresholdConstant
	}
	return configuration
}

// spinnerSession is the transient progress state owned by one ongoing
// operation. The cancellation channel is the only cross-goroutine signal
// besides the render queue itself; the controller observes it on its next
// tick, so cancellation latency is bounded by the tick interval.
type spinnerSession struct {
	mutex          sync.Mutex
	currentText    string
	lastTextChange time.Time
	repaintCounter int
	cancelChannel  chan struct{}
	finished       chan struct{}
	cancelOnce     sync.Once
}

// newSpinnerSession builds the session state; controlled marks whether a
// controller goroutine will be attached. Sessions on non-interactive
// terminals have no controller and finish as soon as they are cancelled.
func newSpinnerSession(initialText string, controlled bool) *spinnerSession {
	session := &spinnerSession{
		currentText:    initialText,
		lastTextChange: time.Now(),
		cancelChannel:  make(chan struct{}),
		finished:       make(chan struct{}),
	}
	if !controlled {
		close(session.finished)
	}
	return session
}

func (session *spinnerSession) updateText(text string) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	if text == session.currentText {
		return
	}
	session.currentText = text
	session.lastTextChange = time.Now()
}

func (session *spinnerSession) stalledSince(threshold time.Duration) bool {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return time.Since(session.lastTextChange) >= threshold
}

func (session *spinnerSession) nextRepaintCount() int {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.repaintCounter++
	return session.repaintCounter
}

func (session *spinnerSession) repaintCount() int {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.repaintCounter
}

// cancel flags the session and waits for the controller to exit when one is
// attached; sessions without a controller finish immediately.
func (session *spinnerSession) cancel() {
	session.cancelOnce.Do(func() {
		close(session.cancelChannel)
	})
	<-session.finished
}

// runSpinnerController animates the open ephemeral line while the operation
// stays ONGOING. It never writes to the terminal directly: every repaint is an
// instruction enqueued behind the emissions already queued, which preserves
// total output ordering.
func runSpinnerController(session *spinnerSession, printer *Printer, configuration SpinnerConfiguration) {
	defer close(session.finished)

	operationStart := time.Now()
	repaintTicker := time.NewTicker(configuration.Interval)
	defer repaintTicker.Stop()

	spinning := false
	for {
		select {
		case <-session.cancelChannel:
			if spinning {
				printer.EnqueueClear()
			}
			return
		case <-repaintTicker.C:
			if !session.stalledSince(configuration.StallThreshold) {
				spinning = false
				continue
			}
			spinning = true
			repaintCount := session.nextRepaintCount()
			glyph := spinnerGlyphs[repaintCount%len(spinnerGlyphs)]
			elapsedSeconds := time.Since(operationStart).Seconds()
			printer.EnqueueRepaint(fmt.Sprintf(spinnerSuffixTemplateConstant, glyph, elapsedSeconds))
		}
	}
}
