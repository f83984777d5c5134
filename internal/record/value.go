// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Normalize converts a driver native value into one of the value kinds supported
// by a Record: string, int64, float64, bool or nil.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, int64, float64:
		return v
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64(v)
	case float32:
		return cast.ToFloat64(strconv.FormatFloat(float64(v), 'g', -1, 32))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		return cast.ToFloat64(v.String())
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Infer parses text into a typed value: booleans and numbers are converted,
// everything else is returned untouched.
func Infer(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}

	// ParseFloat accepts "NaN" and "Inf", keep those as text
	if !strings.ContainsAny(trimmed, "0123456789") {
		return text
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return text
}
