// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package builtin

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mia-platform/etl/internal/etlerr"
	"github.com/mia-platform/etl/internal/manipulation"
	"github.com/mia-platform/etl/internal/record"
)

// CastType is the target kind of a cast manipulation.
type CastType string

const (
	CastString CastType = "string"
	CastInt    CastType = "int"
	CastFloat  CastType = "float"
	CastBool   CastType = "bool"
)

func (d Definition) buildRename() (manipulation.Manipulation, error) {
	mapping := d.Mapping
	if d.Field != "" && d.Target != "" {
		mapping = maps.Clone(mapping)
		if mapping == nil {
			mapping = make(map[string]string, 1)
		}
		mapping[d.Field] = d.Target
	}
	if len(mapping) == 0 {
		return nil, etlerr.InvalidConfiguration("rename requires a mapping or a field and a target")
	}

	oldFields := slices.Sorted(maps.Keys(mapping))
	return manipulation.NewTransform(func(r *record.Record) (*record.Record, error) {
		for _, oldField := range oldFields {
			r.Rename(oldField, mapping[oldField])
		}
		return r, nil
	})
}

// buildSelect keeps only the listed fields, in the listed order. Missing fields
// are skipped.
func (d Definition) buildSelect() (manipulation.Manipulation, error) {
	fields, err := d.requireFields()
	if err != nil {
		return nil, err
	}

	return manipulation.NewTransform(func(r *record.Record) (*record.Record, error) {
		selected := record.New()
		for _, field := range fields {
			if value, ok := r.Get(field); ok {
				selected.Set(field, value)
			}
		}
		return selected, nil
	})
}

func (d Definition) buildDrop() (manipulation.Manipulation, error) {
	fields, err := d.requireFields()
	if err != nil {
		return nil, err
	}

	return manipulation.NewTransform(func(r *record.Record) (*record.Record, error) {
		for _, field := range fields {
			r.Delete(field)
		}
		return r, nil
	})
}

// buildDefault sets Value on the listed fields when they are missing or nil.
func (d Definition) buildDefault() (manipulation.Manipulation, error) {
	fields, err := d.requireFields()
	if err != nil {
		return nil, err
	}
	value := record.Normalize(d.Value)

	return manipulation.NewTransform(func(r *record.Record) (*record.Record, error) {
		for _, field := range fields {
			if r.Value(field) == nil {
				r.Set(field, value)
			}
		}
		return r, nil
	})
}

// buildText applies a string function to the listed fields, or to every text
// field when no field is listed. Non text values are left untouched.
func (d Definition) buildText() (manipulation.Manipulation, error) {
	var fn func(string) string
	switch d.Type {
	case TypeTrim:
		fn = strings.TrimSpace
	case TypeUpper:
		fn = strings.ToUpper
	case TypeLower:
		fn = strings.ToLower
	default:
		fn = toASCII
	}

	fields := d.Fields
	if d.Field != "" {
		fields = append([]string{d.Field}, fields...)
	}

	return manipulation.NewTransform(func(r *record.Record) (*record.Record, error) {
		targets := fields
		if len(targets) == 0 {
			targets = r.Fields()
		}
		for _, field := range targets {
			if text, ok := r.Value(field).(string); ok {
				r.Set(field, fn(text))
			}
		}
		return r, nil
	})
}

// toASCII strips diacritics, so "Crédit Agricole" becomes "Credit Agricole".
func toASCII(text string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(stripper, text)
	if err != nil {
		return text
	}
	return result
}

func (d Definition) buildCast() (manipulation.Manipulation, error) {
	fields, err := d.requireFields()
	if err != nil {
		return nil, err
	}

	var convert func(any) (any, error)
	switch d.To {
	case CastString:
		convert = func(value any) (any, error) { return cast.ToStringE(value) }
	case CastInt:
		convert = func(value any) (any, error) {
			if text, ok := value.(string); ok {
				value = strings.TrimSpace(text)
			}
			return cast.ToInt64E(value)
		}
	case CastFloat:
		convert = func(value any) (any, error) {
			if text, ok := value.(string); ok {
				value = strings.TrimSpace(text)
			}
			return cast.ToFloat64E(value)
		}
	case CastBool:
		convert = func(value any) (any, error) { return cast.ToBoolE(value) }
	default:
		return nil, etlerr.InvalidConfiguration("cast requires a target type among %s", strings.Join(lo.Map(
			[]CastType{CastString, CastInt, CastFloat, CastBool},
			func(item CastType, _ int) string { return string(item) },
		), ", "))
	}

	return manipulation.NewTransform(func(r *record.Record) (*record.Record, error) {
		for _, field := range fields {
			value := r.Value(field)
			if value == nil {
				continue
			}
			converted, err := convert(value)
			if err != nil {
				return nil, err
			}
			r.Set(field, converted)
		}
		return r, nil
	})
}
