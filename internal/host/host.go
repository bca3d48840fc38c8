// Package host defines the capability interface through which the core
// reaches channel data, plus the File/Channel/Grid types the interface
// trades in. The production container format is owned by the host; the
// core only hands it channel sets and metadata to embed.
package host

import (
	"fmt"

	"github.com/scanprobe/spmbatch/pkg/core"
)

// Host is the capability surface the core depends on. Implementations own
// all channel data; the core borrows handles for the duration of a single
// batch action and must not retain them across actions.
type Host interface {
	// ListFiles returns the open files in browser order.
	ListFiles() []*File
	// ListChannels returns f's channels in container order.
	ListChannels(f *File) []*Channel
	// Data returns the channel's sample grid.
	Data(ch *Channel) (*Grid, error)
	// SetData replaces the channel's sample grid and dimensions.
	SetData(ch *Channel, g *Grid) error
	// ListPalettes returns the gradient inventory names.
	ListPalettes() []string
	// Palette resolves a gradient by name.
	Palette(name string) (*Gradient, error)
	// CreateChannel adds a new channel holding g to f.
	CreateChannel(f *File, g *Grid, meta ChannelMeta) (*Channel, error)
	// SaveContainer persists the given channels (with their metadata and
	// processing history) as one container at path.
	SaveContainer(path string, channels []*Channel) error
}

// File identifies one open source file and owns an ordered channel list.
type File struct {
	ID    string
	Name  string
	Dirty bool

	channels []*Channel
}

// Channels returns the file's channels in order.
func (f *File) Channels() []*Channel { return f.channels }

// Channel is one named 2-D data grid plus display metadata.
type Channel struct {
	ID     string
	Name   string
	Width  int
	Height int

	// DX, DY are the physical size of one pixel.
	DX, DY float64
	// XOffset, YOffset are the lateral offset of the channel origin in
	// physical units.
	XOffset, YOffset float64

	Range   *core.ColorRange
	Palette string

	// History holds the proc-log lines of operations applied so far,
	// embedded into containers on save.
	History []string

	data *Grid
}

// WithName returns a shallow copy of the channel under a different name.
// The copy shares the original's data; it exists so merged containers can
// carry collision-resolved names without renaming the live channel.
func (ch *Channel) WithName(name string) *Channel {
	out := *ch
	out.Name = name
	return &out
}

// ChannelMeta carries the metadata for a host-created channel.
type ChannelMeta struct {
	Name             string
	DX, DY           float64
	XOffset, YOffset float64
	Palette          string
	Range            *core.ColorRange
}

// Grid is a dense row-major block of samples.
type Grid struct {
	Width   int
	Height  int
	Samples []float64
}

// NewGrid allocates a zeroed w by h grid.
func NewGrid(w, h int) *Grid {
	return &Grid{Width: w, Height: h, Samples: make([]float64, w*h)}
}

// At returns the sample at (x, y).
func (g *Grid) At(x, y int) float64 { return g.Samples[y*g.Width+x] }

// Set stores v at (x, y).
func (g *Grid) Set(x, y int, v float64) { g.Samples[y*g.Width+x] = v }

// MinMax returns the data extrema. An empty grid reports (0, 0).
func (g *Grid) MinMax() (min, max float64) {
	if len(g.Samples) == 0 {
		return 0, 0
	}
	min, max = g.Samples[0], g.Samples[0]
	for _, v := range g.Samples[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// AreaExtract copies the rectangle (x, y, w, h) into a new grid. The
// caller must have validated bounds.
func (g *Grid) AreaExtract(x, y, w, h int) *Grid {
	out := NewGrid(w, h)
	for row := 0; row < h; row++ {
		src := (y+row)*g.Width + x
		copy(out.Samples[row*w:(row+1)*w], g.Samples[src:src+w])
	}
	return out
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Height: g.Height, Samples: make([]float64, len(g.Samples))}
	copy(out.Samples, g.Samples)
	return out
}

// Gradient is a resolved palette handle. Rendering is out of scope; the
// handle exists so palette assignment can be validated against the
// inventory.
type Gradient struct {
	Name string
}

// UnknownPaletteError reports a gradient name missing from the inventory.
type UnknownPaletteError struct {
	Name string
}

func (e *UnknownPaletteError) Error() string {
	return fmt.Sprintf("unknown palette: %q", e.Name)
}
