package shellexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Command describes one external invocation. Env entries are appended to the
// parent process environment.
type Command struct {
	Line string
	Dir  string
	Env  []string
}

// Result captures the observable outcome of a finished invocation. A non-zero
// ExitCode is data, not an error; the caller decides what it means.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner invokes external commands. The engine, the post-action dispatcher,
// and tests all consume this interface.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ShellRunner executes command lines through the host shell, streaming output
// to the parent process while capturing it for the result.
type ShellRunner struct {
	// Shell overrides shell discovery when set.
	Shell string
	// Stdout and Stderr receive streamed output; nil means the parent's.
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ShellRunner)(nil)

// Run executes the command line and returns its exit status and captured
// output. It returns an error only when the command could not be invoked at
// all (no shell, canceled context, exec failure).
func (r *ShellRunner) Run(ctx context.Context, command Command) (Result, error) {
	shell, shellArgs, err := determineShell(r.Shell)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	args := append(shellArgs, command.Line)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Env = append(os.Environ(), command.Env...)
	if command.Dir != "" {
		cmd.Dir = command.Dir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.MultiWriter(r.stdout(), &stdoutBuf)
	cmd.Stderr = io.MultiWriter(r.stderr(), &stderrBuf)

	runErr := cmd.Run()

	result := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, runErr
	}

	return result, nil
}

func (r *ShellRunner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *ShellRunner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}

func determineShell(explicit string) (string, []string, error) {
	if explicit != "" {
		return explicit, []string{"-c"}, nil
	}

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}, nil
	}

	if path, err := exec.LookPath("bash"); err == nil {
		return path, []string{"-c"}, nil
	}

	if path, err := exec.LookPath("sh"); err == nil {
		return path, []string{"-c"}, nil
	}

	return "", nil, fmt.Errorf("no suitable shell found")
}
