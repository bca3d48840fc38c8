// Package core defines the shared domain types for spmbatch: recorded
// processing steps, color-range and crop descriptions, replay results,
// and the typed error kinds surfaced to callers.
package core

import (
	"fmt"
	"sort"
	"strings"
)

// Op identifies a recorded processing operation.
type Op string

// The fixed operation vocabulary. Parsing matches these case-sensitively.
const (
	OpColorRange Op = "ColorRange"
	OpCrop       Op = "Crop"
	OpRename     Op = "Rename"
	OpGradient   Op = "Gradient"
)

// KnownOps lists the operations the replay engine can dispatch.
var KnownOps = []Op{OpColorRange, OpCrop, OpRename, OpGradient}

// IsKnownOp reports whether name is in the fixed vocabulary.
func IsKnownOp(name string) bool {
	for _, op := range KnownOps {
		if string(op) == name {
			return true
		}
	}
	return false
}

// Step is one recorded operation: its name, its parameters in recorded
// order, and the log line it came from. Steps are immutable once parsed.
type Step struct {
	Op     Op
	Params map[string]ParamValue
	// Order preserves the recorded parameter order for display and for
	// the history line appended on successful replay.
	Order []string
	// Line is the 1-based source line of the block header, for diagnostics.
	Line int
}

// ParamValue is a typed parameter value: number, string, or bool.
type ParamValue struct {
	Kind ParamKind
	Num  float64
	Str  string
	Bool bool
}

// ParamKind discriminates ParamValue variants.
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamNumber
	ParamBool
)

// Number returns a numeric ParamValue.
func Number(v float64) ParamValue { return ParamValue{Kind: ParamNumber, Num: v} }

// String returns a string ParamValue.
func String(v string) ParamValue { return ParamValue{Kind: ParamString, Str: v} }

// Bool returns a boolean ParamValue.
func Bool(v bool) ParamValue { return ParamValue{Kind: ParamBool, Bool: v} }

// Display renders the value the way it appeared in the log.
func (v ParamValue) Display() string {
	switch v.Kind {
	case ParamNumber:
		if v.Num == float64(int64(v.Num)) {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	case ParamBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return v.Str
	}
}

// Float returns the numeric value of the parameter named key, or def when
// the parameter is absent or not numeric.
func (s *Step) Float(key string, def float64) float64 {
	if v, ok := s.Params[key]; ok && v.Kind == ParamNumber {
		return v.Num
	}
	return def
}

// Int is Float truncated to int.
func (s *Step) Int(key string, def int) int {
	return int(s.Float(key, float64(def)))
}

// Str returns the string value of the parameter named key, or def.
func (s *Step) Str(key, def string) string {
	if v, ok := s.Params[key]; ok && v.Kind == ParamString {
		return v.Str
	}
	return def
}

// Flag returns the boolean value of the parameter named key, or def.
func (s *Step) Flag(key string, def bool) bool {
	if v, ok := s.Params[key]; ok && v.Kind == ParamBool {
		return v.Bool
	}
	return def
}

// Describe renders the step as a proc-log line, used both for display and
// for the processing history embedded in saved containers.
func (s *Step) Describe() string {
	keys := s.Order
	if len(keys) == 0 {
		keys = make([]string, 0, len(s.Params))
		for k := range s.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := s.Params[k]; ok {
			parts = append(parts, k+"="+v.Display())
		}
	}
	return fmt.Sprintf("proc::%s(%s)", s.Op, strings.Join(parts, ", "))
}

// Macro is an ordered sequence of steps built from one parsed log.
// It is immutable; re-parsing a log replaces it wholesale.
type Macro struct {
	Steps []Step
}

// Len returns the number of steps.
func (m *Macro) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Steps)
}
