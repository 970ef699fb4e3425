package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/craftline/cmd/cli"
	"github.com/temirov/craftline/internal/clierrors"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the craftline command-line application.
//
// Operation failures are already rendered by the emitter before the
// dispatcher returns, so only usage and startup errors are printed here.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	var craftError *clierrors.CraftError
	if !errors.As(executionError, &craftError) {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	}

	os.Exit(clierrors.ResolveExitCode(executionError))
}
