package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	scriptcmd "github.com/temirov/craftline/cmd/cli/script"
	"github.com/temirov/craftline/internal/clierrors"
	"github.com/temirov/craftline/internal/dispatch"
	"github.com/temirov/craftline/internal/emitter"
	"github.com/temirov/craftline/internal/utils"
	"github.com/temirov/craftline/internal/utils/flags"
	pathutils "github.com/temirov/craftline/internal/utils/path"
)

const (
	applicationNameConstant             = "craftline"
	applicationShortDescriptionConstant = "Command-line interface for craftline runbooks"
	applicationLongDescriptionConstant  = "craftline runs declarative runbooks and coordinates all terminal output through a single verbosity-aware emitter."

	configFileFlagNameConstant    = "config"
	configFileFlagUsageConstant   = "Optional path to a configuration file (YAML or JSON)."
	verbosityFlagNameConstant     = "verbosity"
	verbosityFlagUsageDescription = "Terminal verbosity."

	commonConfigurationKeyConstant     = "common"
	commonVerbosityConfigKeyConstant   = commonConfigurationKeyConstant + ".verbosity"
	commonLogLevelConfigKeyConstant    = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant   = commonConfigurationKeyConstant + ".log_format"
	logConfigurationKeyConstant        = "log"
	logDirectoryConfigKeyConstant      = logConfigurationKeyConstant + ".directory"
	logMaxFilesConfigKeyConstant       = logConfigurationKeyConstant + ".max_files"
	spinnerConfigurationKeyConstant    = "spinner"
	spinnerIntervalConfigKeyConstant   = spinnerConfigurationKeyConstant + ".interval_milliseconds"
	spinnerThresholdConfigKeyConstant  = spinnerConfigurationKeyConstant + ".threshold_seconds"
	environmentPrefixConstant          = "CRAFTLINE"
	configurationNameConstant          = "config"
	configurationTypeConstant          = "yaml"
	defaultConfigurationSearchPath     = "."
	configurationLoadErrorTemplate     = "unable to load configuration: %w"
	loggerCreationErrorTemplate        = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant    = "unable to flush logger: %w"
	invalidVerbosityMessageTemplate    = "invalid verbosity: %v"
	greetingMessageTemplateConstant    = "Starting %s version %s"
	runtimeInitializedMessageConstant  = "runtime initialized"
	runtimeVerbosityFieldConstant      = "verbosity"
	runtimeConfigurationFieldConstant  = "config_file"
	runtimeLogFileFieldConstant        = "run_log_file"
	scriptGroupNameConstant            = "script"
	scriptGroupHelpTextConstant        = "Run and validate runbooks"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration  `mapstructure:"common"`
	Log     ApplicationLogConfiguration     `mapstructure:"log"`
	Spinner ApplicationSpinnerConfiguration `mapstructure:"spinner"`
}

// ApplicationCommonConfiguration stores output settings shared across commands.
type ApplicationCommonConfiguration struct {
	Verbosity string `mapstructure:"verbosity"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationLogConfiguration stores run log placement and retention settings.
type ApplicationLogConfiguration struct {
	Directory string `mapstructure:"directory"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// ApplicationSpinnerConfiguration stores the spinner timing tunables.
type ApplicationSpinnerConfiguration struct {
	IntervalMilliseconds int `mapstructure:"interval_milliseconds"`
	ThresholdSeconds     int `mapstructure:"threshold_seconds"`
}

// Application wires the dispatcher, configuration loader, output emitter, and
// diagnostic logger into a runnable CLI instance.
type Application struct {
	dispatcher             *dispatch.Dispatcher
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	outputEmitter          *emitter.Emitter
	homeExpander           *pathutils.HomeExpander
	commandContextAccessor utils.CommandContextAccessor
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	verbosityFlagValue     string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPath},
	)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		outputEmitter:          emitter.New(),
		homeExpander:           pathutils.NewHomeExpander(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	dispatcher, dispatcherError := dispatch.NewDispatcher(dispatch.Options{
		Use:              applicationNameConstant,
		ShortDescription: applicationShortDescriptionConstant,
		LongDescription:  applicationLongDescriptionConstant,
		OutputEmitter:    application.outputEmitter,
		Initialize: func(command *cobra.Command) error {
			return application.initializeRuntime(command)
		},
	})
	if dispatcherError != nil {
		return nil, dispatcherError
	}
	application.dispatcher = dispatcher

	rootFlags := dispatcher.RootFlags()
	rootFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootFlags.StringVar(
		&application.verbosityFlagValue,
		verbosityFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(emitter.ModeBrief), emitter.ModeNames(), verbosityFlagUsageDescription),
	)

	dispatcher.Register(newVersionCommandHandler(application.outputEmitter))
	dispatcher.RegisterGroup(
		scriptGroupNameConstant,
		scriptGroupHelpTextConstant,
		scriptcmd.NewRunCommandHandler(application.outputEmitter),
		scriptcmd.NewCheckCommandHandler(application.outputEmitter),
	)

	return application, nil
}

// Execute runs the dispatcher and ensures diagnostic logger flushing.
func (application *Application) Execute(executionContext context.Context, arguments []string) error {
	executionError := application.dispatcher.Execute(executionContext, flags.NormalizeToggleArguments(arguments))
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes it against the
// process arguments.
func Execute() error {
	application, constructionError := NewApplication()
	if constructionError != nil {
		return constructionError
	}
	return application.Execute(context.Background(), os.Args[1:])
}

// initializeRuntime loads configuration, builds the diagnostic logger, and
// initializes the output emitter before any command handler runs.
func (application *Application) initializeRuntime(command *cobra.Command) error {
	if application.outputEmitter.State() != emitter.StateUnset {
		return nil
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(
		application.configurationFilePath,
		DefaultConfigurationValues(),
		&application.configuration,
	)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplate, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, verbosityFlagNameConstant) {
		application.configuration.Common.Verbosity = application.verbosityFlagValue
	}

	verbosityMode, parseError := emitter.ParseMode(application.configuration.Common.Verbosity)
	if parseError != nil {
		return clierrors.NewUsageError(fmt.Sprintf(invalidVerbosityMessageTemplate, parseError))
	}

	diagnosticLogger, loggerError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerError != nil {
		return fmt.Errorf(loggerCreationErrorTemplate, loggerError)
	}
	application.logger = diagnosticLogger

	initializationError := application.outputEmitter.Init(emitter.InitOptions{
		Mode:             verbosityMode,
		ApplicationName:  applicationNameConstant,
		Greeting:         fmt.Sprintf(greetingMessageTemplateConstant, applicationNameConstant, applicationVersion),
		LogDirectory:     application.homeExpander.Expand(application.configuration.Log.Directory),
		MaximumLogFiles:  application.configuration.Log.MaxFiles,
		DiagnosticLogger: diagnosticLogger,
		Spinner: emitter.SpinnerConfiguration{
			Interval:       time.Duration(application.configuration.Spinner.IntervalMilliseconds) * time.Millisecond,
			StallThreshold: time.Duration(application.configuration.Spinner.ThresholdSeconds) * time.Second,
		},
	})
	if initializationError != nil {
		return initializationError
	}

	application.logger.Info(
		runtimeInitializedMessageConstant,
		zap.String(runtimeVerbosityFieldConstant, string(verbosityMode)),
		zap.String(runtimeConfigurationFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(runtimeLogFileFieldConstant, application.outputEmitter.LogFilePath()),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	flagSetsToInspect := []*pflag.FlagSet{application.dispatcher.RootFlags()}
	if command != nil {
		flagSetsToInspect = append(flagSetsToInspect, command.InheritedFlags(), command.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}
		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
