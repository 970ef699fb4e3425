package dispatch

import (
	"context"

	"github.com/spf13/pflag"
)

// CommandHandler is one routable command.
//
// Handlers declare their name and help text, contribute flags to the
// dispatcher-owned flag set, and receive the positional arguments that
// remain after parsing.
type CommandHandler interface {
	// Name reports the command word used on the command line.
	Name() string
	// HelpText reports the one-line description shown in help output.
	HelpText() string
	// FillArguments registers the handler's flags on the provided flag set.
	FillArguments(flagSet *pflag.FlagSet)
	// Run executes the command with the parsed positional arguments.
	Run(executionContext context.Context, arguments []string) error
}
