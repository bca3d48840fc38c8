package macro

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanprobe/spmbatch/internal/testutil"
	"github.com/scanprobe/spmbatch/pkg/core"
)

const sampleLog = `ColorRange
  mode = fixed
  min = 0
  max = 255

Crop
  x = 10
  y = 10
  width = 50
  height = 50
  mode = new
  preserveOffset = true

Rename
  template = "topo {index}"

Gradient
  name = Gwyddion.net
`

func TestParseOrderedSteps(t *testing.T) {
	p := NewParser(testutil.NewTestLogger(t))
	m, warnings := p.Parse(sampleLog)

	require.Empty(t, warnings)
	require.Equal(t, 4, m.Len())

	assert.Equal(t, core.OpColorRange, m.Steps[0].Op)
	assert.Equal(t, core.OpCrop, m.Steps[1].Op)
	assert.Equal(t, core.OpRename, m.Steps[2].Op)
	assert.Equal(t, core.OpGradient, m.Steps[3].Op)

	crop := m.Steps[1]
	assert.Equal(t, 10, crop.Int("x", -1))
	assert.Equal(t, 50, crop.Int("width", -1))
	assert.Equal(t, "new", crop.Str("mode", ""))
	assert.True(t, crop.Flag("preserveOffset", false))
	assert.Equal(t, []string{"x", "y", "width", "height", "mode", "preserveOffset"}, crop.Order)

	assert.Equal(t, "topo {index}", m.Steps[2].Str("template", ""))
}

func TestParseProcLineForm(t *testing.T) {
	p := NewParser(testutil.NewTestLogger(t))
	m, warnings := p.Parse("proc::ColorRange(mode=full, invert=true)@2026-08-25T10:00:00\n")

	require.Empty(t, warnings)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, core.OpColorRange, m.Steps[0].Op)
	assert.Equal(t, "full", m.Steps[0].Str("mode", ""))
	assert.True(t, m.Steps[0].Flag("invert", false))
}

func TestParseUnknownOpSkipsBlock(t *testing.T) {
	text := `Levelling
  degree = 2

Crop
  x = 0
  y = 0
  width = 5
  height = 5
`
	p := NewParser(nil)
	m, warnings := p.Parse(text)

	require.Equal(t, 1, m.Len())
	assert.Equal(t, core.OpCrop, m.Steps[0].Op)

	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Line)
	assert.Contains(t, warnings[0].Message, "Levelling")
}

func TestParseOversizedLine(t *testing.T) {
	// A single huge line must not truncate the rest of the log; the line
	// itself is an unknown operation and warns, everything after it parses.
	text := "Junk " + strings.Repeat("x", 70*1024) + "\n\nCrop\n  x = 0\n  y = 0\n  width = 5\n  height = 5\n"
	p := NewParser(nil)
	m, warnings := p.Parse(text)

	require.Equal(t, 1, m.Len())
	assert.Equal(t, core.OpCrop, m.Steps[0].Op)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Line)
}

func TestParseMalformedParamFallsBackToDefault(t *testing.T) {
	text := `Crop
  x = ten
  y = 1
  width = 5
  height = 5
`
	p := NewParser(nil)
	m, warnings := p.Parse(text)

	require.Equal(t, 1, m.Len())
	// The documented default replaces only the bad parameter.
	assert.Equal(t, 0, m.Steps[0].Int("x", -1))
	assert.Equal(t, 1, m.Steps[0].Int("y", -1))

	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Line)
	assert.Contains(t, warnings[0].Message, "using default")
}

func TestParseParamOutsideBlock(t *testing.T) {
	p := NewParser(nil)
	m, warnings := p.Parse("  x = 10\n")

	assert.Equal(t, 0, m.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Line)
}

func TestParseUndeclaredParamKept(t *testing.T) {
	text := `Gradient
  name = Spectral
  brightness = 0.5
`
	p := NewParser(nil)
	m, warnings := p.Parse(text)

	require.Empty(t, warnings)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, 0.5, m.Steps[0].Float("brightness", -1))
	assert.Equal(t, "proc::Gradient(name=Spectral, brightness=0.5)", m.Steps[0].Describe())
}

func TestParseQuotedCommaInProcLine(t *testing.T) {
	p := NewParser(nil)
	m, warnings := p.Parse(`proc::Rename(template="a, b {index}")@ts` + "\n")

	require.Empty(t, warnings)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, "a, b {index}", m.Steps[0].Str("template", ""))
}

func TestParseDeterministic(t *testing.T) {
	p := NewParser(nil)
	first, _ := p.Parse(sampleLog)
	second, _ := p.Parse(sampleLog)
	assert.Equal(t, first, second)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0644))

	p := NewParser(testutil.NewTestLogger(t))
	m, warnings, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 4, m.Len())

	_, _, err = p.ParseFile(filepath.Join(dir, "missing.log"))
	assert.Error(t, err)
}
