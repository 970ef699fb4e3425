package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/emitter"
)

const (
	internalErrorMessagePrefixConstant  = "internal error: "
	internalErrorResolutionConstant     = "this is a defect in the application; report it together with the execution log"
	dispatcherEmitterRequiredMessage    = "output emitter must be provided"
	dispatcherRootUseRequiredMessageTag = "root command use must be provided"
)

// Options configures a Dispatcher.
type Options struct {
	Use              string
	ShortDescription string
	LongDescription  string
	OutputEmitter    *emitter.Emitter
	// Initialize runs before any handler; the application uses it to load
	// configuration and initialize the emitter.
	Initialize func(command *cobra.Command) error
}

// Dispatcher routes command-line invocations to registered handlers and
// funnels their outcomes through the emitter.
//
// Success finalizes the emitter with EndedOK; operation failures are
// presented with Error; argument problems surface as usage errors without
// touching the terminal beyond cobra's usage output. Programming errors such
// as emitter state violations propagate unchanged.
type Dispatcher struct {
	rootCommand   *cobra.Command
	outputEmitter *emitter.Emitter
}

// NewDispatcher validates options and constructs a Dispatcher.
func NewDispatcher(options Options) (*Dispatcher, error) {
	if options.OutputEmitter == nil {
		return nil, errors.New(dispatcherEmitterRequiredMessage)
	}
	if len(strings.TrimSpace(options.Use)) == 0 {
		return nil, errors.New(dispatcherRootUseRequiredMessageTag)
	}

	dispatcher := &Dispatcher{outputEmitter: options.OutputEmitter}

	rootCommand := &cobra.Command{
		Use:           options.Use,
		Short:         options.ShortDescription,
		Long:          options.LongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	if options.Initialize != nil {
		rootCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
			return options.Initialize(command)
		}
	}
	rootCommand.SetFlagErrorFunc(func(command *cobra.Command, flagError error) error {
		return clierrors.NewUsageError(flagError.Error())
	})

	dispatcher.rootCommand = rootCommand
	return dispatcher, nil
}

// RootFlags exposes the persistent flag set shared by every command.
func (dispatcher *Dispatcher) RootFlags() *pflag.FlagSet {
	return dispatcher.rootCommand.PersistentFlags()
}

// Register attaches handlers directly under the root command.
func (dispatcher *Dispatcher) Register(handlers ...CommandHandler) {
	for _, handler := range handlers {
		dispatcher.rootCommand.AddCommand(dispatcher.buildCommand(handler))
	}
}

// RegisterGroup attaches handlers under a shared group command word.
func (dispatcher *Dispatcher) RegisterGroup(groupName string, groupHelp string, handlers ...CommandHandler) {
	groupCommand := &cobra.Command{
		Use:           groupName,
		Short:         groupHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	for _, handler := range handlers {
		groupCommand.AddCommand(dispatcher.buildCommand(handler))
	}
	dispatcher.rootCommand.AddCommand(groupCommand)
}

func (dispatcher *Dispatcher) buildCommand(handler CommandHandler) *cobra.Command {
	cobraCommand := &cobra.Command{
		Use:           handler.Name(),
		Short:         handler.HelpText(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return handler.Run(command.Context(), arguments)
		},
	}
	handler.FillArguments(cobraCommand.Flags())
	return cobraCommand
}

// Execute parses the arguments, runs the selected handler, and finalizes the
// emitter according to the outcome. The returned error maps to the process
// exit code through clierrors.ResolveExitCode.
//
// Command lookup failures are detected through cobra's own Find resolution
// rather than its error text, so an unresolvable command word becomes a usage
// error before any handler machinery runs.
func (dispatcher *Dispatcher) Execute(executionContext context.Context, arguments []string) error {
	if _, _, lookupError := dispatcher.rootCommand.Find(arguments); lookupError != nil {
		return dispatcher.finalize(clierrors.NewUsageError(lookupError.Error()))
	}

	dispatcher.rootCommand.SetArgs(arguments)
	executionError := dispatcher.rootCommand.ExecuteContext(executionContext)
	return dispatcher.finalize(executionError)
}

func (dispatcher *Dispatcher) finalize(executionError error) error {
	if executionError == nil {
		return dispatcher.finalizeSuccess()
	}

	var stateError *clierrors.InvalidStateError
	if errors.As(executionError, &stateError) {
		return executionError
	}
	var initializedError clierrors.AlreadyInitializedError
	if errors.As(executionError, &initializedError) {
		return executionError
	}

	var craftError *clierrors.CraftError
	if errors.As(executionError, &craftError) {
		if dispatcher.emitterInitialized() {
			_ = dispatcher.outputEmitter.Error(craftError)
		}
		return executionError
	}

	usageError := dispatcher.asUsageError(executionError)
	if usageError != nil {
		// every emission is logged; the terminal report happens at the entry
		// point, so the run log gets the usage message as a trace record
		if dispatcher.emitterInitialized() {
			_ = dispatcher.outputEmitter.Trace(usageError.Error())
		}
		_ = dispatcher.finalizeSuccess()
		return usageError
	}

	wrappedError := &clierrors.CraftError{
		Message:    internalErrorMessagePrefixConstant + executionError.Error(),
		Resolution: internalErrorResolutionConstant,
		Cause:      executionError,
	}
	if dispatcher.emitterInitialized() {
		_ = dispatcher.outputEmitter.Error(wrappedError)
	}
	return wrappedError
}

// asUsageError recognizes argument problems raised as explicit usage errors
// by handlers, the flag error hook, or the command lookup.
func (dispatcher *Dispatcher) asUsageError(executionError error) error {
	var usageError *clierrors.UsageError
	if errors.As(executionError, &usageError) {
		return executionError
	}
	return nil
}

func (dispatcher *Dispatcher) finalizeSuccess() error {
	if !dispatcher.emitterInitialized() {
		return nil
	}
	return dispatcher.outputEmitter.EndedOK()
}

func (dispatcher *Dispatcher) emitterInitialized() bool {
	return dispatcher.outputEmitter.State() != emitter.StateUnset
}
