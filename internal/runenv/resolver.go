package runenv

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gantryci/gantry/internal/config"
	gantryerrors "github.com/gantryci/gantry/pkg/errors"
)

// Derived variable names exposed to every step.
const (
	VarWorkspace   = "WORKSPACE"
	VarBuildNumber = "BUILD_NUMBER"
	VarRunID       = "RUN_ID"
	VarDeployDir   = "DEPLOY_DIR"
)

// Metadata carries per-run facts that become derived environment variables.
type Metadata struct {
	Workspace   string
	BuildNumber int
	RunID       string
}

// Resolve merges declared parameters, supplied values, static environment
// entries, and derived run metadata into an immutable Context. It is a pure
// function of its inputs; no stage runs before it succeeds.
func Resolve(decls []config.Parameter, supplied map[string]string, static map[string]string, meta Metadata) (*Context, error) {
	declared := config.ParameterMap(decls)

	for name := range supplied {
		if _, ok := declared[name]; !ok {
			return nil, gantryerrors.NewValidationError(name, fmt.Sprintf("parameter %q is not declared by the pipeline", name), nil)
		}
	}

	values := make(map[string]string, len(decls)+len(static)+4)

	for _, decl := range decls {
		value, ok := supplied[decl.Name]
		if !ok {
			value = decl.Default
		}

		if decl.Type == config.ParamChoice {
			if value == "" {
				return nil, gantryerrors.NewInvalidChoiceError(decl.Name, "", decl.Options)
			}
			if !contains(decl.Options, value) {
				return nil, gantryerrors.NewInvalidChoiceError(decl.Name, value, decl.Options)
			}
		}

		values[decl.Name] = value
	}

	for k, v := range static {
		values[k] = v
	}

	values[VarWorkspace] = meta.Workspace
	values[VarBuildNumber] = strconv.Itoa(meta.BuildNumber)
	values[VarRunID] = meta.RunID
	values[VarDeployDir] = filepath.Join(meta.Workspace, "deploy")

	return &Context{values: values}, nil
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
