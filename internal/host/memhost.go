package host

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/scanprobe/spmbatch/pkg/core"
)

// knownGradients is the palette inventory seeded into every MemHost,
// matching the gradient set shipped with the SPM host application.
var knownGradients = []string{
	"Blend1", "Blend2", "Blue", "Blue-Cyan", "Blue-Violet", "Blue-Yellow",
	"Body", "BW1", "BW2", "Caribbean", "Clusters", "Code-V", "Cold", "DFit",
	"Digitalis", "Gold", "Gray-inverted", "Green", "Green-Cyan",
	"Green-Stripes-4", "Green-Violet", "Green-Yellow", "Gwyddion.net",
	"Halcyon", "Lines", "Maple", "MetroPro", "Neon", "NT-MDT", "Olive",
	"Painbow", "Pink", "Plum", "Pm3d", "Rainbow1", "Rainbow2", "Red",
	"Red-Cyan", "Red-Stripes-5", "Red-Violet", "Red-Yellow", "RGB-Blue",
	"RGB-Green", "RGB-Red", "Rust", "Saw1", "Shame", "Sky", "Sm2",
	"Spectral", "Spectral-white", "Spring", "Viridis", "Warm", "Warpp-mono",
	"Warpp-spectral", "Wyko", "Yellow", "Zones",
}

// MemHost is an in-memory Host. It doubles as the reference container
// implementation: containers round-trip through a JSON document, standing
// in for the opaque binary format of the production host.
type MemHost struct {
	logger   *slog.Logger
	files    []*File
	palettes map[string]*Gradient

	// closeListeners are notified synchronously when a file closes, so
	// selection models can prune before the handles go stale.
	closeListeners []func(fileID string)
}

// NewMemHost creates an empty host with the standard gradient inventory.
func NewMemHost(logger *slog.Logger) *MemHost {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	palettes := make(map[string]*Gradient, len(knownGradients))
	for _, name := range knownGradients {
		palettes[name] = &Gradient{Name: name}
	}
	return &MemHost{logger: logger, palettes: palettes}
}

// AddFile registers a new open file with the given display name.
func (h *MemHost) AddFile(name string) *File {
	f := &File{ID: uuid.New().String(), Name: name}
	h.files = append(h.files, f)
	return f
}

// AddChannel appends a channel holding g to f.
func (h *MemHost) AddChannel(f *File, name string, g *Grid, meta ChannelMeta) *Channel {
	ch := &Channel{
		ID:      uuid.New().String(),
		Name:    name,
		Width:   g.Width,
		Height:  g.Height,
		DX:      meta.DX,
		DY:      meta.DY,
		XOffset: meta.XOffset,
		YOffset: meta.YOffset,
		Palette: meta.Palette,
		Range:   meta.Range,
		data:    g,
	}
	if ch.DX == 0 {
		ch.DX = 1
	}
	if ch.DY == 0 {
		ch.DY = 1
	}
	f.channels = append(f.channels, ch)
	return ch
}

// OnFileClose registers a listener invoked when CloseFile runs.
func (h *MemHost) OnFileClose(fn func(fileID string)) {
	h.closeListeners = append(h.closeListeners, fn)
}

// CloseFile removes f from the open set and notifies listeners.
func (h *MemHost) CloseFile(f *File) {
	for i, cur := range h.files {
		if cur == f {
			h.files = append(h.files[:i], h.files[i+1:]...)
			break
		}
	}
	for _, fn := range h.closeListeners {
		fn(f.ID)
	}
	h.logger.Debug("closed file", "file", f.Name)
}

// ListFiles implements Host.
func (h *MemHost) ListFiles() []*File {
	out := make([]*File, len(h.files))
	copy(out, h.files)
	return out
}

// ListChannels implements Host.
func (h *MemHost) ListChannels(f *File) []*Channel {
	out := make([]*Channel, len(f.channels))
	copy(out, f.channels)
	return out
}

// Data implements Host.
func (h *MemHost) Data(ch *Channel) (*Grid, error) {
	if ch.data == nil {
		return nil, fmt.Errorf("channel %s has no data", ch.Name)
	}
	return ch.data, nil
}

// SetData implements Host.
func (h *MemHost) SetData(ch *Channel, g *Grid) error {
	ch.data = g
	ch.Width = g.Width
	ch.Height = g.Height
	return nil
}

// ListPalettes implements Host.
func (h *MemHost) ListPalettes() []string {
	names := make([]string, 0, len(h.palettes))
	for name := range h.palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Palette implements Host.
func (h *MemHost) Palette(name string) (*Gradient, error) {
	g, ok := h.palettes[name]
	if !ok {
		return nil, &UnknownPaletteError{Name: name}
	}
	return g, nil
}

// CreateChannel implements Host.
func (h *MemHost) CreateChannel(f *File, g *Grid, meta ChannelMeta) (*Channel, error) {
	ch := h.AddChannel(f, meta.Name, g, meta)
	f.Dirty = true
	h.logger.Debug("created channel", "file", f.Name, "channel", ch.Name,
		"width", g.Width, "height", g.Height)
	return ch, nil
}

// containerDoc is the on-disk shape of a MemHost container.
type containerDoc struct {
	Name     string       `json:"name"`
	Channels []channelDoc `json:"channels"`
}

type channelDoc struct {
	Name    string           `json:"name"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	DX      float64          `json:"dx"`
	DY      float64          `json:"dy"`
	XOffset float64          `json:"xoffset"`
	YOffset float64          `json:"yoffset"`
	Palette string           `json:"palette,omitempty"`
	Range   *core.ColorRange `json:"range,omitempty"`
	Log     []string         `json:"log,omitempty"`
	Samples []float64        `json:"samples"`
}

// SaveContainer implements Host.
func (h *MemHost) SaveContainer(path string, channels []*Channel) error {
	doc := containerDoc{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	for _, ch := range channels {
		cd := channelDoc{
			Name:    ch.Name,
			Width:   ch.Width,
			Height:  ch.Height,
			DX:      ch.DX,
			DY:      ch.DY,
			XOffset: ch.XOffset,
			YOffset: ch.YOffset,
			Palette: ch.Palette,
			Range:   ch.Range,
			Log:     ch.History,
		}
		if ch.data != nil {
			cd.Samples = ch.data.Samples
		}
		doc.Channels = append(doc.Channels, cd)
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return &core.IOError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &core.IOError{Path: path, Err: err}
	}
	h.logger.Info("saved container", "path", path, "channels", len(channels))
	return nil
}

// OpenContainer loads a container document from path and registers it as
// an open file.
func (h *MemHost) OpenContainer(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.IOError{Path: path, Err: err}
	}
	var doc containerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse container %s: %w", path, err)
	}

	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	// Validate before registering anything, so a bad document never leaves
	// a half-loaded file behind. A sample count that disagrees with the
	// declared dimensions would put the grid out of step with every bounds
	// check downstream.
	for _, cd := range doc.Channels {
		if cd.Width < 0 || cd.Height < 0 {
			return nil, fmt.Errorf("parse container %s: channel %q has negative dimensions %dx%d",
				path, cd.Name, cd.Width, cd.Height)
		}
		if cd.Samples != nil && len(cd.Samples) != cd.Width*cd.Height {
			return nil, fmt.Errorf("parse container %s: channel %q has %d samples, want %d",
				path, cd.Name, len(cd.Samples), cd.Width*cd.Height)
		}
	}

	f := h.AddFile(name)
	for _, cd := range doc.Channels {
		g := &Grid{Width: cd.Width, Height: cd.Height, Samples: cd.Samples}
		if g.Samples == nil {
			g.Samples = make([]float64, cd.Width*cd.Height)
		}
		ch := h.AddChannel(f, cd.Name, g, ChannelMeta{
			DX:      cd.DX,
			DY:      cd.DY,
			XOffset: cd.XOffset,
			YOffset: cd.YOffset,
			Palette: cd.Palette,
			Range:   cd.Range,
		})
		ch.History = cd.Log
	}
	h.logger.Debug("opened container", "path", path, "channels", len(doc.Channels))
	return f, nil
}
