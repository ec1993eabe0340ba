package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	gantryerrors "github.com/gantryci/gantry/pkg/errors"
)

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0"
name: demo
stages:
  - name: Build
    steps:
      - run: "true"
`), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"validate", "-c", path})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "demo: 1 stage(s), 0 parameter(s)")
}

func TestValidateCommandRejectsBrokenPipeline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nname: demo\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", "-c", path})

	err := cmd.Execute()
	require.Error(t, err)

	var valErr *gantryerrors.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "gantry")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, 2, exitCode(gantryerrors.NewValidationError("stages", "missing", nil)))
	require.Equal(t, 2, exitCode(gantryerrors.NewParseError("p.yaml", 1, errors.New("bad"))))
	require.Equal(t, 2, exitCode(gantryerrors.NewInvalidChoiceError("DEPLOY_ENV", "qa", []string{"dev"})))
	require.Equal(t, 1, exitCode(errors.New("run failed")))
}
