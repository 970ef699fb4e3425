package emitter

import "time"

const (
	severityInfoStringConstant     = "info"
	severityProgressStringConstant = "progress"
	severityWarningStringConstant  = "warning"
	severityErrorStringConstant    = "error"
	severityTraceStringConstant    = "trace"
)

// Severity classifies an emission for the run log.
type Severity string

// Supported emission severities.
const (
	SeverityInfo     Severity = Severity(severityInfoStringConstant)
	SeverityProgress Severity = Severity(severityProgressStringConstant)
	SeverityWarning  Severity = Severity(severityWarningStringConstant)
	SeverityError    Severity = Severity(severityErrorStringConstant)
	SeverityTrace    Severity = Severity(severityTraceStringConstant)
)

// Target selects the destinations of an emission.
type Target int

// Supported emission targets. Emitter calls always reach the log; the
// terminal-only target exists for progress bar repaints, whose per-advance
// frames would otherwise flood the run log.
const (
	TargetTerminalAndLog Target = iota
	TargetLogOnly
	TargetTerminalOnly
)

// Emission is the immutable record created for one emitter call.
//
// It is consumed exactly once by the writer goroutine and not retained beyond
// the log file. Ephemeral emissions may be overwritten in place on interactive
// terminals.
type Emission struct {
	Timestamp time.Time
	Severity  Severity
	Text      string
	Target    Target
	Ephemeral bool
}

func newEmission(severity Severity, text string, target Target, ephemeral bool) Emission {
	return Emission{
		Timestamp: time.Now(),
		Severity:  severity,
		Text:      text,
		Target:    target,
		Ephemeral: ephemeral,
	}
}
