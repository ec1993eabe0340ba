package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	gantryerrors "github.com/gantryci/gantry/pkg/errors"
)

func basePipeline() *Pipeline {
	return &Pipeline{
		Version: "1.0",
		Name:    "demo",
		Stages: []Stage{
			{Name: "Build", Steps: []Step{commandStep("npm install")}},
		},
	}
}

func commandStep(run string) Step {
	return Step{Type: StepCommand, Run: run, OnFailure: FailureAbort}
}

func TestValidateAcceptsBasePipeline(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate(basePipeline()))
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(p *Pipeline)
		wantMsg string
	}{
		{
			name: "duplicate stage names",
			mutate: func(p *Pipeline) {
				p.Stages = append(p.Stages, Stage{Name: "Build", Steps: []Step{commandStep("npm test")}})
			},
			wantMsg: "duplicate stage name",
		},
		{
			name: "stage with both steps and parallel",
			mutate: func(p *Pipeline) {
				p.Stages[0].Parallel = map[string]Branch{
					"a": {Steps: []Step{commandStep("true")}},
					"b": {Steps: []Step{commandStep("true")}},
				}
			},
			wantMsg: "exactly one of steps or parallel",
		},
		{
			name: "parallel stage with a single branch",
			mutate: func(p *Pipeline) {
				p.Stages[0].Steps = nil
				p.Stages[0].Parallel = map[string]Branch{
					"only": {Steps: []Step{commandStep("true")}},
				}
			},
			wantMsg: "at least two branches",
		},
		{
			name: "choice parameter with one option",
			mutate: func(p *Pipeline) {
				p.Parameters = []Parameter{{Name: "DEPLOY_ENV", Type: ParamChoice, Options: []string{"dev"}}}
			},
			wantMsg: "at least two options",
		},
		{
			name: "choice default outside option set",
			mutate: func(p *Pipeline) {
				p.Parameters = []Parameter{{Name: "DEPLOY_ENV", Type: ParamChoice, Options: []string{"dev", "prod"}, Default: "qa"}}
			},
			wantMsg: "not a declared option",
		},
		{
			name: "duplicate choice options",
			mutate: func(p *Pipeline) {
				p.Parameters = []Parameter{{Name: "DEPLOY_ENV", Type: ParamChoice, Options: []string{"dev", "dev"}}}
			},
			wantMsg: "duplicate option",
		},
		{
			name: "string parameter with options",
			mutate: func(p *Pipeline) {
				p.Parameters = []Parameter{{Name: "VERSION", Type: ParamString, Options: []string{"1.0.0"}}}
			},
			wantMsg: "only valid for choice",
		},
		{
			name: "duplicate parameter names",
			mutate: func(p *Pipeline) {
				p.Parameters = []Parameter{
					{Name: "VERSION", Type: ParamString},
					{Name: "VERSION", Type: ParamString},
				}
			},
			wantMsg: "duplicate parameter",
		},
		{
			name: "lowercase parameter name",
			mutate: func(p *Pipeline) {
				p.Parameters = []Parameter{{Name: "version", Type: ParamString}}
			},
			wantMsg: "param_name",
		},
		{
			name: "command step without run line",
			mutate: func(p *Pipeline) {
				p.Stages[0].Steps = []Step{{Type: StepCommand, Run: "   ", OnFailure: FailureAbort}}
			},
			wantMsg: "requires a run line",
		},
		{
			name: "checkout step without checkout block",
			mutate: func(p *Pipeline) {
				p.Stages[0].Steps = []Step{{Type: StepCheckout, OnFailure: FailureAbort}}
			},
			wantMsg: "requires a checkout block",
		},
		{
			name: "command step with checkout block",
			mutate: func(p *Pipeline) {
				p.Stages[0].Steps = []Step{{
					Type:      StepCommand,
					Run:       "true",
					OnFailure: FailureAbort,
					Checkout:  &CheckoutStep{URL: "https://example.com/repo.git"},
				}}
			},
			wantMsg: "only valid on checkout steps",
		},
		{
			name: "invalid post step",
			mutate: func(p *Pipeline) {
				p.Post.Cleanup = []Step{{Type: StepCommand, OnFailure: FailureAbort}}
			},
			wantMsg: "requires a run line",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pipeline := basePipeline()
			tc.mutate(pipeline)

			err := Validate(pipeline)
			require.Error(t, err)

			var valErr *gantryerrors.ValidationError
			require.ErrorAs(t, err, &valErr)
			require.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestSortedBranchNames(t *testing.T) {
	t.Parallel()

	branches := map[string]Branch{
		"integration": {},
		"unit":        {},
		"lint":        {},
	}
	require.Equal(t, []string{"integration", "lint", "unit"}, SortedBranchNames(branches))
}
