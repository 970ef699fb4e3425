package emitter

import (
	"fmt"
	"strings"
)

const (
	modeQuietStringConstant               = "quiet"
	modeBriefStringConstant               = "brief"
	modeVerboseStringConstant             = "verbose"
	modeDebugStringConstant               = "debug"
	modeTraceStringConstant               = "trace"
	unsupportedVerbosityTemplateConstant  = "unsupported verbosity mode: %s"
	verbosityChoicesJoinSeparatorConstant = ", "
)

// Mode enumerates the process-wide verbosity modes.
//
// The mode only decides what reaches the terminal; every emission is written
// to the run log regardless.
type Mode string

// Supported verbosity modes, ordered from least to most terminal output.
const (
	ModeQuiet   Mode = Mode(modeQuietStringConstant)
	ModeBrief   Mode = Mode(modeBriefStringConstant)
	ModeVerbose Mode = Mode(modeVerboseStringConstant)
	ModeDebug   Mode = Mode(modeDebugStringConstant)
	ModeTrace   Mode = Mode(modeTraceStringConstant)
)

var orderedModes = []Mode{ModeQuiet, ModeBrief, ModeVerbose, ModeDebug, ModeTrace}

// ParseMode converts a user-provided string into a Mode.
func ParseMode(candidate string) (Mode, error) {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	for _, knownMode := range orderedModes {
		if normalizedCandidate == string(knownMode) {
			return knownMode, nil
		}
	}
	return Mode(""), fmt.Errorf(unsupportedVerbosityTemplateConstant, candidate)
}

// ModeNames lists the supported verbosity mode names in order.
func ModeNames() []string {
	modeNames := make([]string, 0, len(orderedModes))
	for _, knownMode := range orderedModes {
		modeNames = append(modeNames, string(knownMode))
	}
	return modeNames
}

// ShowsMessages reports whether informational messages reach the terminal.
func (mode Mode) ShowsMessages() bool {
	return mode != ModeQuiet
}

// ShowsProgress reports whether progress updates reach the terminal.
func (mode Mode) ShowsProgress() bool {
	return mode != ModeQuiet
}

// ShowsStreams reports whether streamed subprocess output reaches the terminal.
func (mode Mode) ShowsStreams() bool {
	return mode == ModeVerbose || mode == ModeDebug || mode == ModeTrace
}

// ShowsTrace reports whether trace emissions reach the terminal.
func (mode Mode) ShowsTrace() bool {
	return mode == ModeDebug || mode == ModeTrace
}

// DetailedOutput reports whether the mode keeps progress lines permanent and
// surfaces full error diagnostics on the terminal.
func (mode Mode) DetailedOutput() bool {
	return mode == ModeVerbose || mode == ModeDebug || mode == ModeTrace
}
