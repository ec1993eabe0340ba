package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	gantryerrors "github.com/gantryci/gantry/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern    = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	paramNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("param_name", func(fl validator.FieldLevel) bool {
			return paramNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema and cross-field validation on the pipeline.
func Validate(pipeline *Pipeline) error {
	if pipeline == nil {
		return gantryerrors.NewValidationError("pipeline", "pipeline is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(pipeline); err != nil {
		return convertValidationError(err)
	}

	if err := validateParameters(pipeline.Parameters); err != nil {
		return err
	}

	stageNames := make(map[string]struct{}, len(pipeline.Stages))
	for i, stage := range pipeline.Stages {
		if _, exists := stageNames[stage.Name]; exists {
			return gantryerrors.NewValidationError(fieldForStage(i, "name"), fmt.Sprintf("duplicate stage name %q", stage.Name), nil)
		}
		stageNames[stage.Name] = struct{}{}

		if err := validateStage(stage, i); err != nil {
			return err
		}
	}

	for group, steps := range map[string][]Step{
		"always":  pipeline.Post.Always,
		"success": pipeline.Post.Success,
		"failure": pipeline.Post.Failure,
		"cleanup": pipeline.Post.Cleanup,
	} {
		for j, step := range steps {
			if err := validateStep(step, fmt.Sprintf("post.%s[%d]", group, j)); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateParameters(params []Parameter) error {
	seen := make(map[string]struct{}, len(params))
	for i, p := range params {
		field := fmt.Sprintf("parameters[%d]", i)

		if _, exists := seen[p.Name]; exists {
			return gantryerrors.NewValidationError(field+".name", fmt.Sprintf("duplicate parameter %q", p.Name), nil)
		}
		seen[p.Name] = struct{}{}

		switch p.Type {
		case ParamChoice:
			if len(p.Options) < 2 {
				return gantryerrors.NewValidationError(field+".options", "choice parameter needs at least two options", nil)
			}
			opts := make(map[string]struct{}, len(p.Options))
			for _, opt := range p.Options {
				if _, dup := opts[opt]; dup {
					return gantryerrors.NewValidationError(field+".options", fmt.Sprintf("duplicate option %q", opt), nil)
				}
				opts[opt] = struct{}{}
			}
			if p.Default != "" {
				if _, ok := opts[p.Default]; !ok {
					return gantryerrors.NewValidationError(field+".default", fmt.Sprintf("default %q is not a declared option", p.Default), nil)
				}
			}
		case ParamString:
			if len(p.Options) > 0 {
				return gantryerrors.NewValidationError(field+".options", "options are only valid for choice parameters", nil)
			}
		}
	}
	return nil
}

func validateStage(stage Stage, index int) error {
	hasSteps := len(stage.Steps) > 0
	hasParallel := len(stage.Parallel) > 0

	if hasSteps == hasParallel {
		return gantryerrors.NewValidationError(fieldForStage(index, ""), "stage must declare exactly one of steps or parallel", nil)
	}

	if hasParallel && len(stage.Parallel) < 2 {
		return gantryerrors.NewValidationError(fieldForStage(index, "parallel"), "parallel stage needs at least two branches", nil)
	}

	for j, step := range stage.Steps {
		if err := validateStep(step, fmt.Sprintf("stages[%d].steps[%d]", index, j)); err != nil {
			return err
		}
	}

	for _, branch := range sortedBranchNames(stage.Parallel) {
		b := stage.Parallel[branch]
		for j, step := range b.Steps {
			if err := validateStep(step, fmt.Sprintf("stages[%d].parallel.%s.steps[%d]", index, branch, j)); err != nil {
				return err
			}
		}
		for j, step := range b.Always {
			if err := validateStep(step, fmt.Sprintf("stages[%d].parallel.%s.always[%d]", index, branch, j)); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateStep(step Step, field string) error {
	v := validatorInstance()
	if err := v.Struct(step); err != nil {
		return convertValidationError(err)
	}

	switch step.Type {
	case StepCommand:
		if strings.TrimSpace(step.Run) == "" {
			return gantryerrors.NewValidationError(field+".run", "command step requires a run line", nil)
		}
		if step.Checkout != nil {
			return gantryerrors.NewValidationError(field+".checkout", "checkout block is only valid on checkout steps", nil)
		}
	case StepCheckout:
		if step.Checkout == nil {
			return gantryerrors.NewValidationError(field+".checkout", "checkout step requires a checkout block", nil)
		}
		if step.Run != "" {
			return gantryerrors.NewValidationError(field+".run", "run line is only valid on command steps", nil)
		}
		if err := v.Struct(step.Checkout); err != nil {
			return convertValidationError(err)
		}
	}

	return nil
}

// SortedBranchNames returns the branch names of a parallel stage in a stable
// order. Branch execution order is unspecified; reporting order is not.
func SortedBranchNames(parallel map[string]Branch) []string {
	return sortedBranchNames(parallel)
}

func sortedBranchNames(parallel map[string]Branch) []string {
	names := make([]string, 0, len(parallel))
	for name := range parallel {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return gantryerrors.NewValidationError(field, msg, err)
	}

	return gantryerrors.NewValidationError("pipeline", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForStage(index int, field string) string {
	if field == "" {
		return fmt.Sprintf("stages[%d]", index)
	}
	return fmt.Sprintf("stages[%d].%s", index, field)
}
