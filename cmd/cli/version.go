package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/temirov/craftline/internal/emitter"
	"github.com/temirov/craftline/internal/utils"
)

const (
	versionCommandNameConstant        = "version"
	versionCommandHelpTextConstant    = "Print the application version"
	versionMessageTemplateConstant    = "%s version %s"
	configurationFileTraceTemplateTag = "Configuration file: %q"
	developmentVersionConstant        = "development"
)

// applicationVersion is overridden at release time through the linker.
var applicationVersion = developmentVersionConstant

type versionCommandHandler struct {
	outputEmitter          *emitter.Emitter
	commandContextAccessor utils.CommandContextAccessor
}

func newVersionCommandHandler(outputEmitter *emitter.Emitter) *versionCommandHandler {
	return &versionCommandHandler{
		outputEmitter:          outputEmitter,
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}
}

func (handler *versionCommandHandler) Name() string {
	return versionCommandNameConstant
}

func (handler *versionCommandHandler) HelpText() string {
	return versionCommandHelpTextConstant
}

func (handler *versionCommandHandler) FillArguments(flagSet *pflag.FlagSet) {}

func (handler *versionCommandHandler) Run(executionContext context.Context, arguments []string) error {
	versionError := handler.outputEmitter.Message(fmt.Sprintf(versionMessageTemplateConstant, applicationNameConstant, applicationVersion))
	if versionError != nil {
		return versionError
	}

	configurationFilePath, configurationFileResolved := handler.commandContextAccessor.ConfigurationFilePath(executionContext)
	if configurationFileResolved && len(configurationFilePath) > 0 {
		return handler.outputEmitter.Trace(fmt.Sprintf(configurationFileTraceTemplateTag, configurationFilePath))
	}
	return nil
}
