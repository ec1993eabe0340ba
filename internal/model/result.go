package model

import (
	"fmt"
	"time"
)

const (
	// StatusSuccess marks a step or stage that completed cleanly.
	StatusSuccess = "success"
	// StatusWarning marks a tolerant step that exited non-zero.
	StatusWarning = "warning"
	// StatusFailed marks a fatal failure.
	StatusFailed = "failed"
	// StatusSkipped marks a stage that never ran because the run aborted.
	StatusSkipped = "skipped"
)

// RunStatus is the overall outcome of a pipeline run.
type RunStatus string

const (
	// RunPending is the initial state before the executor finalizes the run.
	RunPending RunStatus = "pending"
	// RunSuccess indicates every stage completed without a fatal failure.
	RunSuccess RunStatus = "success"
	// RunFailure indicates a fatal step or branch failure aborted the run.
	RunFailure RunStatus = "failure"
)

// StepOutcome captures the result of a single step invocation.
type StepOutcome struct {
	Name     string
	Status   string
	Message  string
	ExitCode int
	Duration time.Duration
}

// BranchOutcome captures the result of one branch of a parallel stage,
// including the outcomes of its always-hook steps.
type BranchOutcome struct {
	Name     string
	Status   string
	Steps    []StepOutcome
	Always   []StepOutcome
	Duration time.Duration
}

// StageOutcome captures the result of a top-level stage. For parallel stages
// Steps is empty and Branches holds one entry per branch.
type StageOutcome struct {
	Name     string
	Status   string
	Steps    []StepOutcome
	Branches []BranchOutcome
	Duration time.Duration
}

// PostOutcome pairs a post-action handler outcome with the trigger group
// (always, success, failure, cleanup) that ran it.
type PostOutcome struct {
	Group string
	StepOutcome
}

// RunResult is the ordered log of stage outcomes plus the final run status.
// It is mutated only by the executor and finalized exactly once; all other
// components treat it as read-only.
type RunResult struct {
	RunID     string
	Status    RunStatus
	Stages    []StageOutcome
	StartedAt time.Time
	Duration  time.Duration

	finalized bool
}

// NewRunResult creates a pending result for the given run identifier.
func NewRunResult(runID string) *RunResult {
	return &RunResult{
		RunID:     runID,
		Status:    RunPending,
		StartedAt: time.Now(),
	}
}

// AppendStage records a stage outcome in declaration order.
func (r *RunResult) AppendStage(outcome StageOutcome) {
	r.Stages = append(r.Stages, outcome)
}

// Finalize sets the terminal status. Calling it twice is a programming error.
func (r *RunResult) Finalize(status RunStatus) error {
	if r.finalized {
		return fmt.Errorf("run result already finalized as %s", r.Status)
	}
	r.Status = status
	r.Duration = time.Since(r.StartedAt)
	r.finalized = true
	return nil
}

// Finalized reports whether the terminal status has been set.
func (r *RunResult) Finalized() bool {
	return r.finalized
}

// Failed reports whether the run ended in failure.
func (r *RunResult) Failed() bool {
	return r.Status == RunFailure
}
