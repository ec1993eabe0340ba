package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gantryci/gantry/internal/logger"
	"github.com/gantryci/gantry/internal/runenv"
	"github.com/gantryci/gantry/internal/shellexec"
)

// fakeRunner records invocations and replies with configured exit codes.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []shellexec.Command
	exitCodes map[string]int
	errs      map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		exitCodes: make(map[string]int),
		errs:      make(map[string]error),
	}
}

func (f *fakeRunner) Run(_ context.Context, cmd shellexec.Command) (shellexec.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, cmd)
	if err, ok := f.errs[cmd.Line]; ok {
		return shellexec.Result{ExitCode: -1}, err
	}
	return shellexec.Result{ExitCode: f.exitCodes[cmd.Line]}, nil
}

func (f *fakeRunner) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		out = append(out, call.Line)
	}
	return out
}

func (f *fakeRunner) ran(line string) bool {
	for _, l := range f.lines() {
		if l == line {
			return true
		}
	}
	return false
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func testEnv(t *testing.T) *runenv.Context {
	t.Helper()

	env, err := runenv.Resolve(nil, nil, map[string]string{"NODE_ENV": "test"}, runenv.Metadata{
		Workspace:   "/tmp/ws",
		BuildNumber: 1,
		RunID:       "run-test",
	})
	require.NoError(t, err)
	return env
}
