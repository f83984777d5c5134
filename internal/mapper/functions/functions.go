// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package functions provides the template functions available to the template
// transformations, on top of the sprig library.
package functions

import (
	"crypto/sha512"
	"encoding/hex"
	"maps"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"
)

// FuncMap returns the sprig text functions extended with the etl ones.
// The etl functions win on name clashes.
func FuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	maps.Copy(funcs, template.FuncMap{
		"number":    Number,
		"integer":   Integer,
		"boolean":   Boolean,
		"field":     Field,
		"sha512sum": Sha512Sum,
		"uuidv7":    UUIDV7,
		"nfc":       NFC,
	})
	return funcs
}

// Number reads value as a float64, returning 0 when it is not numeric.
func Number(value any) float64 {
	return cast.ToFloat64(value)
}

// Integer reads value as an int64, returning 0 when it is not numeric.
func Integer(value any) int64 {
	if text, ok := value.(string); ok {
		return int64(cast.ToFloat64(text))
	}
	return cast.ToInt64(value)
}

// Boolean reads value as a bool, returning false when it cannot be parsed.
func Boolean(value any) bool {
	return cast.ToBool(value)
}

// Field returns record[name], or defaultValue when the field is missing or nil.
func Field(name string, record map[string]any, defaultValue any) any {
	if value, ok := record[name]; ok && value != nil {
		return value
	}
	return defaultValue
}

// Sha512Sum returns the hex encoded SHA-512 digest of input.
func Sha512Sum(input string) string {
	hash := sha512.Sum512([]byte(input))
	return hex.EncodeToString(hash[:])
}

// UUIDV7 returns a new time ordered UUID.
func UUIDV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NFC returns input in Unicode normalization form C.
func NFC(input string) string {
	return norm.NFC.String(input)
}
