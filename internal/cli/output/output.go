// Package output renders command results as human-readable text or JSON.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

const (
	// ModeAuto picks text on a terminal and plain text elsewhere.
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Renderer writes formatted command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styled bool
}

// NewRenderer creates a renderer. ModeAuto resolves against whether out is
// a terminal; styling is applied only on terminals.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	if mode == ModeAuto || mode == "" {
		mode = ModeText
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, styled: isTTY}
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// IsJSON reports whether JSON output was requested.
func (r *Renderer) IsJSON() bool { return r.mode == ModeJSON }

// Println writes a plain line.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text.
func (r *Renderer) Printf(format string, a ...any) {
	fmt.Fprintf(r.out, format, a...)
}

// Header writes a bold section header.
func (r *Renderer) Header(text string) {
	fmt.Fprintln(r.out, r.style(headerStyle, text))
}

// Success writes a success line.
func (r *Renderer) Success(text string) {
	fmt.Fprintln(r.out, r.style(successStyle, text))
}

// Warn writes a warning line to stderr.
func (r *Renderer) Warn(text string) {
	fmt.Fprintln(r.errOut, r.style(warnStyle, text))
}

// Error writes an error line to stderr.
func (r *Renderer) Error(text string) {
	fmt.Fprintln(r.errOut, r.style(errorStyle, text))
}

// JSON writes v as one indented JSON document.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// JSONLine writes v as a single JSON line, for event streams.
func (r *Renderer) JSONLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

// Table renders rows under header using the shared table style.
func (r *Renderer) Table(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// rendererKey stores the renderer in a command context.
type rendererKey struct{}

// IntoContext stores r in ctx.
func IntoContext(ctx context.Context, r *Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*Renderer); ok {
		return r
	}
	return NewRenderer(os.Stdout, os.Stderr, ModeAuto)
}
