package main

import (
	"errors"
	"fmt"
	"os"

	gantryerrors "github.com/gantryci/gantry/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps failures to CI-host exit statuses: 2 for definition or
// parameter problems detected before any stage runs, 1 for run failures.
func exitCode(err error) int {
	var parseErr *gantryerrors.ParseError
	var valErr *gantryerrors.ValidationError
	var choiceErr *gantryerrors.InvalidChoiceError

	if errors.As(err, &parseErr) || errors.As(err, &valErr) || errors.As(err, &choiceErr) {
		return 2
	}
	return 1
}
