// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

// Package normalize converts loosely typed GPS Dozor records into the strict
// internal domain model.
//
// Upstream schemas vary between provider versions (PascalCase vs camelCase
// keys, nested position objects, meters vs kilometers), so records are kept
// as opaque maps and every scalar goes through a total coercer. Nothing in
// this package returns an error or panics on malformed input.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Record is one raw upstream JSON object.
type Record map[string]interface{}

// AsString returns "" for nil, the trimmed string form of scalars, and ""
// for objects and arrays.
func AsString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// AsNumber returns the numeric value of v, or 0 for anything that is not a
// finite number or a string holding one. It never returns NaN or Inf.
func AsNumber(v interface{}) float64 {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case float32:
		n = float64(val)
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// AsBoolean is true only for true, "true", 1 and "1".
func AsBoolean(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "1"
	case float64:
		return val == 1
	case int:
		return val == 1
	case int64:
		return val == 1
	default:
		return false
	}
}

// AsRecord returns v as a Record when it is a JSON object, nil otherwise.
func AsRecord(v interface{}) Record {
	switch val := v.(type) {
	case Record:
		return val
	case map[string]interface{}:
		return Record(val)
	default:
		return nil
	}
}

// String resolves the first key with a non-empty string value.
// Keys are tried in order, so the upstream-native spelling goes first.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		if s := AsString(r[k]); s != "" {
			return s
		}
	}
	return ""
}

// Number resolves the first key with a non-zero numeric value.
func (r Record) Number(keys ...string) float64 {
	for _, k := range keys {
		if n := AsNumber(r[k]); n != 0 {
			return n
		}
	}
	return 0
}

// Nested returns the first key present with a non-nil value, as a Record.
// A present but non-object value yields nil; later keys are not consulted.
func (r Record) Nested(keys ...string) Record {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return AsRecord(v)
		}
	}
	return nil
}

// RoundHalfUp rounds half-way values toward positive infinity.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
