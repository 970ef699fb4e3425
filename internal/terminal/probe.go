package terminal

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const (
	fallbackTerminalWidthConstant       = 80
	terminalTypeEnvironmentKeyConstant  = "TERM"
	dumbTerminalTypeValueConstant       = "dumb"
	colorSuppressionEnvironmentConstant = "NO_COLOR"
)

// Descriptor captures the capabilities of an output stream.
//
// IsInteractive gates cursor-control sequences, SupportsColor gates ANSI
// coloring, and Width bounds single-line repaints.
type Descriptor struct {
	IsInteractive bool
	SupportsColor bool
	Width         int
}

// Probe inspects the provided file descriptor and the environment to build a
// capability descriptor for it.
func Probe(outputFile *os.File) Descriptor {
	if outputFile == nil {
		return Descriptor{Width: fallbackTerminalWidthConstant}
	}

	fileDescriptor := outputFile.Fd()
	interactive := isatty.IsTerminal(fileDescriptor) || isatty.IsCygwinTerminal(fileDescriptor)

	terminalWidth := fallbackTerminalWidthConstant
	if interactive {
		if measuredWidth, _, sizeError := term.GetSize(int(fileDescriptor)); sizeError == nil && measuredWidth > 0 {
			terminalWidth = measuredWidth
		}
	}

	return Descriptor{
		IsInteractive: interactive,
		SupportsColor: interactive && colorAllowedByEnvironment(),
		Width:         terminalWidth,
	}
}

func colorAllowedByEnvironment() bool {
	if _, colorSuppressed := os.LookupEnv(colorSuppressionEnvironmentConstant); colorSuppressed {
		return false
	}
	terminalType := strings.TrimSpace(os.Getenv(terminalTypeEnvironmentKeyConstant))
	if strings.EqualFold(terminalType, dumbTerminalTypeValueConstant) {
		return false
	}
	return true
}
