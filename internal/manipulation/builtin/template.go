// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package builtin

import (
	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/mapper"
)

func (d Definition) buildTemplate() (manipulation.Manipulation, error) {
	if len(d.Templates) == 0 {
		return nil, etlerr.InvalidConfiguration("template requires at least one field template")
	}

	var options []mapper.Option
	if d.InferTypes {
		options = append(options, mapper.WithTypeInference())
	}

	m, err := mapper.New(d.Templates, options...)
	if err != nil {
		return nil, etlerr.InvalidConfiguration("%s", err)
	}
	return manipulation.NewTransform(m.ApplyTemplates)
}
