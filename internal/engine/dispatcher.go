package engine

import (
	"context"
	"fmt"

	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/logger"
	"github.com/gantryci/gantry/internal/model"
	"github.com/gantryci/gantry/internal/runenv"
	"github.com/gantryci/gantry/internal/scm"
	"github.com/gantryci/gantry/internal/shellexec"
)

// Post-action trigger groups, in dispatch order.
const (
	GroupAlways  = "always"
	GroupSuccess = "success"
	GroupFailure = "failure"
	GroupCleanup = "cleanup"
)

// Dispatcher runs post-action handlers once the run result is finalized.
// The ordering invariant is ALWAYS, then exactly one of SUCCESS or FAILURE,
// then CLEANUP, and it holds even when earlier handler groups fail.
type Dispatcher struct {
	runner shellexec.Runner
	clone  scm.CloneFunc
	log    *logger.Logger

	// onSuccess runs inside the SUCCESS branch, after its handlers. The
	// artifact archiver hangs off this hook so archiving happens iff the run
	// succeeded.
	onSuccess func(ctx context.Context) error
}

// NewDispatcher creates a post-action dispatcher backed by the given runner.
func NewDispatcher(runner shellexec.Runner, log *logger.Logger) *Dispatcher {
	return &Dispatcher{runner: runner, clone: scm.Clone, log: log}
}

// WithOnSuccess registers a hook executed inside the SUCCESS branch.
func (d *Dispatcher) WithOnSuccess(hook func(ctx context.Context) error) *Dispatcher {
	d.onSuccess = hook
	return d
}

// Dispatch executes the post-action groups for the finalized result and
// returns the ordered handler outcome log. Handler failures are recorded but
// never reorder or skip later groups; cleanup failures are logged only.
func (d *Dispatcher) Dispatch(ctx context.Context, result *model.RunResult, post config.PostActions, env *runenv.Context) []model.PostOutcome {
	var outcomes []model.PostOutcome

	outcomes = append(outcomes, d.runGroup(ctx, GroupAlways, post.Always, env)...)

	if result.Failed() {
		outcomes = append(outcomes, d.runGroup(ctx, GroupFailure, post.Failure, env)...)
	} else {
		outcomes = append(outcomes, d.runGroup(ctx, GroupSuccess, post.Success, env)...)
		if d.onSuccess != nil {
			if err := d.onSuccess(ctx); err != nil {
				d.log.Error(err, "success hook failed")
				outcomes = append(outcomes, model.PostOutcome{
					Group: GroupSuccess,
					StepOutcome: model.StepOutcome{
						Name:    "archive artifacts",
						Status:  model.StatusFailed,
						Message: err.Error(),
					},
				})
			}
		}
	}

	outcomes = append(outcomes, d.runGroup(ctx, GroupCleanup, post.Cleanup, env)...)

	return outcomes
}

func (d *Dispatcher) runGroup(ctx context.Context, group string, steps []config.Step, env *runenv.Context) []model.PostOutcome {
	if len(steps) == 0 {
		return nil
	}

	groupLog := d.log.WithField("post", group)
	outcomes := make([]model.PostOutcome, 0, len(steps))

	for _, step := range steps {
		outcome, fatal := runStep(ctx, d.runner, d.clone, groupLog, step, env)

		if group == GroupCleanup && outcome.Status == model.StatusFailed {
			// Cleanup must not escalate; downgrade and log.
			groupLog.Warn(nil, fmt.Sprintf("cleanup step %q failed, ignoring", outcome.Name))
			outcome.Status = model.StatusWarning
		} else if fatal {
			groupLog.Error(nil, fmt.Sprintf("post-action step %q failed", outcome.Name))
		}

		outcomes = append(outcomes, model.PostOutcome{Group: group, StepOutcome: outcome})
	}

	return outcomes
}
