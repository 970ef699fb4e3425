package script

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/craftline/internal/clierrors"
)

const (
	runbookPathRequiredMessageConstant       = "runbook path must be provided"
	runbookLoadErrorTemplateConstant         = "failed to load runbook: %w"
	runbookParseErrorTemplateConstant        = "failed to parse runbook: %w"
	runbookEmptyStepsMessageConstant         = "runbook must define at least one step"
	runbookCommandMissingTemplateConstant    = "runbook step %d missing command"
	runbookDuplicateStepNameTemplateConstant = "runbook defines duplicate step name %q"
)

// StepConfiguration describes one command invocation in a runbook.
//
// Name labels the operation on the terminal and in the run log; it defaults
// to the command when omitted.
type StepConfiguration struct {
	Name             string            `yaml:"name"`
	Command          string            `yaml:"command"`
	Arguments        []string          `yaml:"args"`
	WorkingDirectory string            `yaml:"dir"`
	Environment      map[string]string `yaml:"env"`
}

// Runbook is an ordered list of steps executed sequentially.
type Runbook struct {
	Steps []StepConfiguration `yaml:"steps"`
}

// Label reports the display name for a step.
func (step StepConfiguration) Label() string {
	trimmedName := strings.TrimSpace(step.Name)
	if len(trimmedName) > 0 {
		return trimmedName
	}
	return strings.TrimSpace(step.Command)
}

// LoadRunbook reads a runbook definition from disk and validates it.
//
// Both a bare document with a top-level steps list and a document nesting it
// under a runbook key are accepted. Validation failures are usage errors:
// they describe problems with user-provided input, not internal faults.
func LoadRunbook(filePath string) (Runbook, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Runbook{}, clierrors.NewUsageError(runbookPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Runbook{}, fmt.Errorf(runbookLoadErrorTemplateConstant, readError)
	}

	var runbook Runbook
	if unmarshalError := yaml.Unmarshal(contentBytes, &runbook); unmarshalError != nil {
		return Runbook{}, fmt.Errorf(runbookParseErrorTemplateConstant, unmarshalError)
	}

	if len(runbook.Steps) == 0 {
		var wrapper struct {
			Runbook Runbook `yaml:"runbook"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil && len(wrapper.Runbook.Steps) > 0 {
			runbook = wrapper.Runbook
		}
	}

	if validationError := runbook.Validate(); validationError != nil {
		return Runbook{}, validationError
	}

	return runbook, nil
}

// Validate checks structural requirements without touching the filesystem.
func (runbook Runbook) Validate() error {
	if len(runbook.Steps) == 0 {
		return clierrors.NewUsageError(runbookEmptyStepsMessageConstant)
	}

	seenStepNames := map[string]struct{}{}
	for stepIndex, step := range runbook.Steps {
		if len(strings.TrimSpace(step.Command)) == 0 {
			return clierrors.NewUsageError(fmt.Sprintf(runbookCommandMissingTemplateConstant, stepIndex+1))
		}
		stepLabel := step.Label()
		if _, duplicate := seenStepNames[stepLabel]; duplicate && len(strings.TrimSpace(step.Name)) > 0 {
			return clierrors.NewUsageError(fmt.Sprintf(runbookDuplicateStepNameTemplateConstant, stepLabel))
		}
		seenStepNames[stepLabel] = struct{}{}
	}

	return nil
}
