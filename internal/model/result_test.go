package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunResultStartsPending(t *testing.T) {
	t.Parallel()

	result := NewRunResult("run-1")
	require.Equal(t, RunPending, result.Status)
	require.False(t, result.Finalized())
	require.False(t, result.Failed())
}

func TestFinalizeIsWriteOnce(t *testing.T) {
	t.Parallel()

	result := NewRunResult("run-1")
	require.NoError(t, result.Finalize(RunFailure))
	require.True(t, result.Finalized())
	require.True(t, result.Failed())

	err := result.Finalize(RunSuccess)
	require.Error(t, err)
	require.Equal(t, RunFailure, result.Status)
}

func TestAppendStagePreservesOrder(t *testing.T) {
	t.Parallel()

	result := NewRunResult("run-1")
	result.AppendStage(StageOutcome{Name: "Checkout", Status: StatusSuccess})
	result.AppendStage(StageOutcome{Name: "Build", Status: StatusFailed})
	result.AppendStage(StageOutcome{Name: "Test", Status: StatusSkipped})

	require.Len(t, result.Stages, 3)
	require.Equal(t, "Checkout", result.Stages[0].Name)
	require.Equal(t, "Build", result.Stages[1].Name)
	require.Equal(t, "Test", result.Stages[2].Name)
}
