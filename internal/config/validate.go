// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/mia-platform/etl/internal/etlerr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks every definition and the uniqueness of their names. All the
// problems found are returned together, each wrapping etlerr.ErrInvalidConfiguration.
func Validate(pipelines []*Pipeline) error {
	errs := make([]error, 0)
	seen := make(map[string]string)
	for idx, pipeline := range pipelines {
		name := pipeline.Name
		if name == "" {
			name = fmt.Sprintf("#%d", idx)
		}

		problems := pipeline.problems()
		if previous, duplicated := seen[pipeline.Name]; duplicated && pipeline.Name != "" {
			problems = append(problems, "name already used by a pipeline in "+previous)
		}
		seen[pipeline.Name] = pipeline.file

		if len(problems) > 0 {
			errs = append(errs, etlerr.InvalidConfiguration("pipeline %s (%s): %s", name, pipeline.file, strings.Join(problems, "; ")))
		}
	}
	return errors.Join(errs...)
}

// problems lists what is wrong in a single definition.
func (p *Pipeline) problems() []string {
	problems := make([]string, 0)

	err := structValidator().Struct(p)
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			problems = append(problems, describe(fieldErr))
		}
	} else if err != nil {
		problems = append(problems, err.Error())
	}

	if p.Source.blocks() > 1 {
		problems = append(problems, "source: only the "+string(p.Source.Type)+" block can be set")
	}
	if p.Destination.blocks() > 1 {
		problems = append(problems, "destination: only the "+string(p.Destination.Type)+" block can be set")
	}

	if p.Schedule != "" {
		if _, err := cron.ParseStandard(p.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("schedule: %s", err))
		}
	}
	return problems
}

// describe renders a validation failure with the yaml path of the field.
func describe(fieldErr validator.FieldError) string {
	// the namespace starts with the struct type name
	_, field, _ := strings.Cut(fieldErr.Namespace(), ".")
	field = strings.ReplaceAll(field, "Location.", "")

	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return field + " is required when " + strings.ToLower(strings.Replace(fieldErr.Param(), " ", " is ", 1))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fieldErr.Param(), fieldErr.Value())
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fieldErr.Param())
	default:
		return fmt.Sprintf("%s failed the %s check", field, fieldErr.Tag())
	}
}
