// Package macro parses exported processing logs into ordered, replayable
// macros. Parsing is lenient: bad lines become warnings, never aborts.
package macro

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/scanprobe/spmbatch/pkg/core"
)

// GrammarVersion identifies the accepted log grammar. Bump when the block
// grammar gains extensions (nested or multi-valued parameters are not part
// of version 1 and are reported as warnings).
const GrammarVersion = 1

// procLinePattern matches the host's exported single-line form:
// proc::Name(k=v, ...)@timestamp
var procLinePattern = regexp.MustCompile(`^proc::(\w+)\((.*)\)@(.+)$`)

// paramKinds declares the expected parameter types per operation. Values
// are coerced against this table; a failed coercion falls back to the
// operation default below.
var paramKinds = map[core.Op]map[string]core.ParamKind{
	core.OpColorRange: {
		"mode":   core.ParamString,
		"min":    core.ParamNumber,
		"max":    core.ParamNumber,
		"invert": core.ParamBool,
	},
	core.OpCrop: {
		"x":              core.ParamNumber,
		"y":              core.ParamNumber,
		"width":          core.ParamNumber,
		"height":         core.ParamNumber,
		"mode":           core.ParamString,
		"preserveOffset": core.ParamBool,
	},
	core.OpRename: {
		"template": core.ParamString,
	},
	core.OpGradient: {
		"name": core.ParamString,
	},
}

// paramDefaults holds the documented default for each typed parameter.
var paramDefaults = map[core.Op]map[string]core.ParamValue{
	core.OpColorRange: {
		"mode":   core.String(string(core.RangeFull)),
		"min":    core.Number(0),
		"max":    core.Number(0),
		"invert": core.Bool(false),
	},
	core.OpCrop: {
		"x":              core.Number(0),
		"y":              core.Number(0),
		"mode":           core.String(string(core.CropInPlace)),
		"preserveOffset": core.Bool(false),
	},
	core.OpRename: {
		"template": core.String("{name}"),
	},
	core.OpGradient: {
		"name": core.String("Gwyddion.net"),
	},
}

// Parser turns raw log text into a Macro.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger discards.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{logger: logger}
}

// ParseFile reads and parses a log file.
func (p *Parser) ParseFile(path string) (*core.Macro, []*core.ParseError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read log file: %w", err)
	}
	macro, warns := p.Parse(string(data))
	return macro, warns, nil
}

// Parse parses log text. Block order is preserved exactly; the returned
// warnings carry the source line numbers of skipped or defaulted input.
func (p *Parser) Parse(text string) (*core.Macro, []*core.ParseError) {
	var (
		steps    []core.Step
		warnings []*core.ParseError
		current  *core.Step
	)

	flush := func() {
		if current != nil {
			steps = append(steps, *current)
			current = nil
		}
	}
	warn := func(line int, format string, args ...any) {
		w := &core.ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
		warnings = append(warnings, w)
		p.logger.Warn("log parse warning", "line", line, "message", w.Message)
	}

	// Lines are split directly from the already-loaded text: exported logs
	// can carry arbitrarily long lines, and a length-limited scanner would
	// drop everything after the first oversized one.
	skipBlock := false
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimRight(raw, " \t\r")

		if strings.TrimSpace(line) == "" {
			flush()
			skipBlock = false
			continue
		}

		indented := line[0] == ' ' || line[0] == '\t'
		if !indented {
			flush()
			skipBlock = false

			// Single-line exported form.
			if m := procLinePattern.FindStringSubmatch(line); m != nil {
				step, ws := p.parseProcLine(m[1], m[2], lineNo)
				warnings = append(warnings, ws...)
				if step != nil {
					steps = append(steps, *step)
				}
				continue
			}

			name := strings.TrimSpace(line)
			if !core.IsKnownOp(name) {
				warn(lineNo, "unknown operation %q", name)
				skipBlock = true
				continue
			}
			current = &core.Step{
				Op:     core.Op(name),
				Params: make(map[string]core.ParamValue),
				Line:   lineNo,
			}
			continue
		}

		// Indented parameter line.
		if skipBlock {
			continue
		}
		if current == nil {
			warn(lineNo, "parameter line outside an operation block")
			continue
		}
		key, rawVal, ok := splitKeyValue(line)
		if !ok {
			warn(lineNo, "malformed parameter line %q", strings.TrimSpace(line))
			continue
		}
		p.setParam(current, key, rawVal, lineNo, warn)
	}
	flush()

	return &core.Macro{Steps: steps}, warnings
}

// parseProcLine converts one proc::Name(params)@timestamp entry.
func (p *Parser) parseProcLine(name, params string, lineNo int) (*core.Step, []*core.ParseError) {
	var warnings []*core.ParseError
	warn := func(line int, format string, args ...any) {
		warnings = append(warnings, &core.ParseError{
			Line:    line,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if !core.IsKnownOp(name) {
		warn(lineNo, "unknown operation %q", name)
		return nil, warnings
	}
	step := &core.Step{
		Op:     core.Op(name),
		Params: make(map[string]core.ParamValue),
		Line:   lineNo,
	}
	for _, part := range splitParams(params) {
		key, rawVal, ok := splitKeyValue(part)
		if !ok {
			warn(lineNo, "malformed parameter %q", strings.TrimSpace(part))
			continue
		}
		p.setParam(step, key, rawVal, lineNo, warn)
	}
	return step, warnings
}

// setParam coerces rawVal against the operation's declared type and stores
// it. A coercion failure stores the documented default instead; only that
// one parameter is affected.
func (p *Parser) setParam(step *core.Step, key, rawVal string, lineNo int,
	warn func(line int, format string, args ...any)) {

	kinds := paramKinds[step.Op]
	kind, declared := kinds[key]
	var val core.ParamValue
	if declared {
		coerced, err := coerce(rawVal, kind)
		if err != nil {
			warn(lineNo, "%s.%s: %v (using default)", step.Op, key, err)
			def, ok := paramDefaults[step.Op][key]
			if !ok {
				return
			}
			val = def
		} else {
			val = coerced
		}
	} else {
		// Undeclared keys are preserved verbatim for display and history.
		val = guessValue(rawVal)
	}

	if _, exists := step.Params[key]; !exists {
		step.Order = append(step.Order, key)
	}
	step.Params[key] = val
}

// splitKeyValue splits "key = value" (or "key=value") into its halves.
func splitKeyValue(s string) (key, val string, ok bool) {
	i := strings.Index(s, "=")
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(s[:i])
	val = strings.TrimSpace(s[i+1:])
	if key == "" {
		return "", "", false
	}
	return key, val, true
}

// splitParams splits a comma-separated parameter string, honoring double
// quotes.
func splitParams(s string) []string {
	var (
		parts  []string
		buf    strings.Builder
		quoted bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			buf.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	if strings.TrimSpace(buf.String()) != "" {
		parts = append(parts, buf.String())
	}
	return parts
}

// coerce converts a raw string to the declared parameter kind.
func coerce(raw string, kind core.ParamKind) (core.ParamValue, error) {
	switch kind {
	case core.ParamBool:
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			return core.Bool(true), nil
		case "false", "0", "no":
			return core.Bool(false), nil
		}
		return core.ParamValue{}, fmt.Errorf("not a boolean: %q", raw)
	case core.ParamNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.ParamValue{}, fmt.Errorf("not a number: %q", raw)
		}
		return core.Number(f), nil
	default:
		return core.String(strings.Trim(raw, `"`)), nil
	}
}

// guessValue infers a type for undeclared parameters the way the exported
// logs encode them: booleans, then numbers, then strings.
func guessValue(raw string) core.ParamValue {
	switch strings.ToLower(raw) {
	case "true":
		return core.Bool(true)
	case "false":
		return core.Bool(false)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return core.Number(f)
	}
	return core.String(strings.Trim(raw, `"`))
}
