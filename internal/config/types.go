package config

import (
	"gopkg.in/yaml.v3"
)

// Parameter type names accepted in a pipeline definition.
const (
	ParamString = "string"
	ParamChoice = "choice"
)

// Step failure policies.
const (
	// FailureAbort aborts the whole run when the step exits non-zero.
	FailureAbort = "abort"
	// FailureContinue records a warning and keeps the run going.
	FailureContinue = "continue"
)

// Step types.
const (
	StepCommand  = "command"
	StepCheckout = "checkout"
)

// Pipeline represents the full pipeline definition document.
type Pipeline struct {
	Version     string            `yaml:"version" validate:"required,semver"`
	Name        string            `yaml:"name" validate:"required,min=1,max=100"`
	Description string            `yaml:"description,omitempty"`
	Parameters  []Parameter       `yaml:"parameters,omitempty" validate:"omitempty,dive"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Stages      []Stage           `yaml:"stages" validate:"required,min=1,dive"`
	Post        PostActions       `yaml:"post,omitempty"`
	Archive     []ArchiveSpec     `yaml:"archive,omitempty" validate:"omitempty,dive"`
}

// Parameter declares a typed run input.
type Parameter struct {
	Name    string   `yaml:"name" validate:"required,param_name"`
	Type    string   `yaml:"type" validate:"required,oneof=string choice"`
	Default string   `yaml:"default,omitempty"`
	Options []string `yaml:"options,omitempty"`
}

// Stage is one top-level unit of work: either a sequential step list or a
// group of named parallel branches. Exactly one of Steps and Parallel must be
// set; the validator enforces this.
type Stage struct {
	Name     string            `yaml:"name" validate:"required,min=1"`
	Steps    []Step            `yaml:"steps,omitempty" validate:"omitempty,dive"`
	Parallel map[string]Branch `yaml:"parallel,omitempty" validate:"omitempty,dive"`
}

// IsParallel reports whether the stage fans out into branches.
func (s Stage) IsParallel() bool {
	return len(s.Parallel) > 0
}

// Branch is one concurrently-executed sub-sequence of a parallel stage.
// Always steps run after the branch's steps regardless of their outcome.
type Branch struct {
	Steps  []Step `yaml:"steps" validate:"required,min=1,dive"`
	Always []Step `yaml:"always,omitempty" validate:"omitempty,dive"`
}

// Step describes an external command invocation or a built-in checkout.
type Step struct {
	Name      string            `yaml:"name,omitempty"`
	Type      string            `yaml:"type,omitempty" validate:"required,oneof=command checkout"`
	Run       string            `yaml:"run,omitempty"`
	WorkDir   string            `yaml:"workdir,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
	OnFailure string            `yaml:"on_failure,omitempty" validate:"required,oneof=abort continue"`
	Checkout  *CheckoutStep     `yaml:"checkout,omitempty"`
}

// UnmarshalYAML applies step defaults: command type unless a checkout block
// is present, and the abort failure policy.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type rawStep Step
	var temp rawStep
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*s = Step(temp)

	if s.Type == "" {
		if s.Checkout != nil {
			s.Type = StepCheckout
		} else {
			s.Type = StepCommand
		}
	}
	if s.OnFailure == "" {
		s.OnFailure = FailureAbort
	}
	return nil
}

// Fatal reports whether a non-zero exit aborts the run.
func (s Step) Fatal() bool {
	return s.OnFailure == FailureAbort
}

// DisplayName returns the step name, falling back to the command line or the
// checkout URL when no name was declared.
func (s Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Type == StepCheckout && s.Checkout != nil {
		return "checkout " + s.Checkout.URL
	}
	return s.Run
}

// CheckoutStep clones a git repository into the workspace.
type CheckoutStep struct {
	URL         string `yaml:"url" validate:"required"`
	Ref         string `yaml:"ref,omitempty"`
	Destination string `yaml:"destination,omitempty"`
	Depth       int    `yaml:"depth,omitempty" validate:"omitempty,min=0"`
}

// PostActions holds the handler lists executed after the run result is known.
type PostActions struct {
	Always  []Step `yaml:"always,omitempty" validate:"omitempty,dive"`
	Success []Step `yaml:"success,omitempty" validate:"omitempty,dive"`
	Failure []Step `yaml:"failure,omitempty" validate:"omitempty,dive"`
	Cleanup []Step `yaml:"cleanup,omitempty" validate:"omitempty,dive"`
}

// Empty reports whether no post-action handlers are declared.
func (p PostActions) Empty() bool {
	return len(p.Always) == 0 && len(p.Success) == 0 && len(p.Failure) == 0 && len(p.Cleanup) == 0
}

// ArchiveSpec pairs an artifact glob pattern with a required flag. A required
// pattern with zero matches is reported as a missing artifact.
type ArchiveSpec struct {
	Pattern  string `yaml:"pattern" validate:"required"`
	Required bool   `yaml:"required,omitempty"`
}

// ParameterMap builds a lookup table for parameters by name.
func ParameterMap(params []Parameter) map[string]Parameter {
	out := make(map[string]Parameter, len(params))
	for _, p := range params {
		out[p.Name] = p
	}
	return out
}
