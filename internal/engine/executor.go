package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/logger"
	"github.com/gantryci/gantry/internal/model"
	"github.com/gantryci/gantry/internal/runenv"
	"github.com/gantryci/gantry/internal/scm"
	"github.com/gantryci/gantry/internal/shellexec"
)

// Executor walks the stage graph and produces the run result. It is the only
// writer of the RunResult; everything downstream reads it.
type Executor struct {
	runner shellexec.Runner
	clone  scm.CloneFunc
	log    *logger.Logger
}

// New creates an executor backed by the given process runner.
func New(runner shellexec.Runner, log *logger.Logger) *Executor {
	return &Executor{runner: runner, clone: scm.Clone, log: log}
}

// WithClone overrides the checkout implementation; tests use fakes.
func (e *Executor) WithClone(clone scm.CloneFunc) *Executor {
	e.clone = clone
	return e
}

// Execute runs the stages in declaration order against the immutable run
// environment. A fatal step failure aborts remaining stages; those stages are
// still recorded as skipped so the outcome log covers the whole graph. The
// returned result is finalized exactly once.
func (e *Executor) Execute(ctx context.Context, pipeline *config.Pipeline, env *runenv.Context, runID string) *model.RunResult {
	result := model.NewRunResult(runID)
	aborted := false

	for _, stage := range pipeline.Stages {
		if aborted {
			result.AppendStage(model.StageOutcome{Name: stage.Name, Status: model.StatusSkipped})
			continue
		}

		stageLog := e.log.WithStage(stage.Name)
		stageLog.Info("stage starting")
		start := time.Now()

		var outcome model.StageOutcome
		if stage.IsParallel() {
			outcome = e.runParallel(ctx, stage, env, stageLog)
		} else {
			outcome = e.runSequential(ctx, stage, env, stageLog)
		}
		outcome.Duration = time.Since(start)

		if outcome.Status == model.StatusFailed {
			stageLog.Error(nil, "stage failed, aborting remaining stages")
			aborted = true
		} else {
			stageLog.Info(fmt.Sprintf("stage finished in %s", outcome.Duration.Round(time.Millisecond)))
		}

		result.AppendStage(outcome)
	}

	status := model.RunSuccess
	if aborted {
		status = model.RunFailure
	}
	if err := result.Finalize(status); err != nil {
		e.log.Error(err, "finalize run result")
	}

	return result
}

func (e *Executor) runSequential(ctx context.Context, stage config.Stage, env *runenv.Context, stageLog *logger.Logger) model.StageOutcome {
	outcome := model.StageOutcome{Name: stage.Name, Status: model.StatusSuccess}

	steps, failed := e.runSteps(ctx, stage.Steps, env, stageLog)
	outcome.Steps = steps
	if failed {
		outcome.Status = model.StatusFailed
	}

	return outcome
}

// runParallel dispatches one worker per branch and joins on all of them. A
// failing branch does not preempt its siblings; the stage reports failure
// only after every branch has finished.
func (e *Executor) runParallel(ctx context.Context, stage config.Stage, env *runenv.Context, stageLog *logger.Logger) model.StageOutcome {
	names := config.SortedBranchNames(stage.Parallel)
	branchOutcomes := make([]model.BranchOutcome, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string, branch config.Branch) {
			defer wg.Done()
			branchOutcomes[i] = e.runBranch(ctx, name, branch, env, stageLog.WithBranch(name))
		}(i, name, stage.Parallel[name])
	}
	wg.Wait()

	outcome := model.StageOutcome{Name: stage.Name, Status: model.StatusSuccess, Branches: branchOutcomes}
	for _, branch := range branchOutcomes {
		if branch.Status == model.StatusFailed {
			outcome.Status = model.StatusFailed
		}
	}

	return outcome
}

// runBranch executes a branch's steps, then its always hooks. The hooks run
// regardless of the branch outcome and are never skipped.
func (e *Executor) runBranch(ctx context.Context, name string, branch config.Branch, env *runenv.Context, branchLog *logger.Logger) model.BranchOutcome {
	start := time.Now()
	outcome := model.BranchOutcome{Name: name, Status: model.StatusSuccess}

	steps, failed := e.runSteps(ctx, branch.Steps, env, branchLog)
	outcome.Steps = steps

	always, hookFailed := e.runSteps(ctx, branch.Always, env, branchLog)
	outcome.Always = always

	if failed || hookFailed {
		outcome.Status = model.StatusFailed
	}

	outcome.Duration = time.Since(start)
	return outcome
}

func (e *Executor) runSteps(ctx context.Context, steps []config.Step, env *runenv.Context, log *logger.Logger) ([]model.StepOutcome, bool) {
	outcomes := make([]model.StepOutcome, 0, len(steps))

	for _, step := range steps {
		outcome, fatal := runStep(ctx, e.runner, e.clone, log, step, env)
		outcomes = append(outcomes, outcome)
		if fatal {
			return outcomes, true
		}
	}

	return outcomes, false
}
