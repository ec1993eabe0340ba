package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/logger"
	"github.com/gantryci/gantry/internal/model"
	"github.com/gantryci/gantry/internal/runenv"
	"github.com/gantryci/gantry/internal/scm"
	"github.com/gantryci/gantry/internal/shellexec"
)

// runStep invokes one step through the process layer and maps its exit status
// to an outcome according to the step's failure policy. fatal is true when the
// failure must abort the enclosing run.
func runStep(ctx context.Context, runner shellexec.Runner, clone scm.CloneFunc, log *logger.Logger, step config.Step, env *runenv.Context) (outcome model.StepOutcome, fatal bool) {
	start := time.Now()
	outcome = model.StepOutcome{Name: step.DisplayName()}

	log.Debug(fmt.Sprintf("step %q starting", outcome.Name))

	var exitCode int
	var invokeErr error

	switch step.Type {
	case config.StepCheckout:
		invokeErr = runCheckout(ctx, clone, step, env)
	default:
		exitCode, invokeErr = runCommand(ctx, runner, step, env)
	}

	outcome.Duration = time.Since(start)
	outcome.ExitCode = exitCode

	if invokeErr != nil {
		outcome.Status = model.StatusFailed
		outcome.Message = invokeErr.Error()
		log.Error(invokeErr, fmt.Sprintf("step %q could not be invoked", outcome.Name))
		return outcome, step.Fatal()
	}

	if exitCode != 0 {
		if step.Fatal() {
			outcome.Status = model.StatusFailed
			outcome.Message = fmt.Sprintf("exited with code %d", exitCode)
			log.Error(nil, fmt.Sprintf("step %q failed with exit code %d", outcome.Name, exitCode))
			return outcome, true
		}
		outcome.Status = model.StatusWarning
		outcome.Message = fmt.Sprintf("exited with code %d (tolerated)", exitCode)
		log.Warn(nil, fmt.Sprintf("step %q exited with code %d, continuing", outcome.Name, exitCode))
		return outcome, false
	}

	outcome.Status = model.StatusSuccess
	log.Debug(fmt.Sprintf("step %q completed", outcome.Name))
	return outcome, false
}

func runCommand(ctx context.Context, runner shellexec.Runner, step config.Step, env *runenv.Context) (int, error) {
	cmdEnv := env.Environ()
	for k, v := range step.Env {
		cmdEnv = append(cmdEnv, fmt.Sprintf("%s=%s", k, env.Expand(v)))
	}

	dir := env.Expand(step.WorkDir)
	if dir == "" {
		dir = env.Get(runenv.VarWorkspace)
	}

	res, err := runner.Run(ctx, shellexec.Command{
		Line: env.Expand(step.Run),
		Dir:  dir,
		Env:  cmdEnv,
	})
	if err != nil {
		return -1, err
	}
	return res.ExitCode, nil
}

func runCheckout(ctx context.Context, clone scm.CloneFunc, step config.Step, env *runenv.Context) error {
	cfg := step.Checkout
	if cfg == nil {
		return fmt.Errorf("checkout step has no checkout block")
	}

	dest := env.Expand(cfg.Destination)
	if dest == "" {
		dest = env.Get(runenv.VarWorkspace)
	}

	return clone(ctx, scm.Options{
		URL:         env.Expand(cfg.URL),
		Ref:         env.Expand(cfg.Ref),
		Destination: dest,
		Depth:       cfg.Depth,
	})
}
