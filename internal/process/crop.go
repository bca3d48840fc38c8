package process

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// CropResolver validates crop specifications and produces the target
// channel. Interactive rectangle selection happens upstream; specs arrive
// here already resolved to pixel coordinates.
type CropResolver struct {
	logger *slog.Logger
}

// NewCropResolver creates a resolver. A nil logger discards.
func NewCropResolver(logger *slog.Logger) *CropResolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CropResolver{logger: logger}
}

// Resolve validates spec against ch's bounds and performs the crop.
// InPlace mutates ch, keeping its identity; NewChannel asks the host for a
// fresh channel in f. Out-of-bounds specs fail validation naming the
// violated bound; nothing is clamped.
func (c *CropResolver) Resolve(h host.Host, f *host.File, ch *host.Channel, spec core.CropSpec) (core.CropRegion, *host.Channel, error) {
	var region core.CropRegion
	if err := validateSpec(ch, spec); err != nil {
		return region, nil, err
	}
	region = core.CropRegion{
		X: spec.X, Y: spec.Y,
		Width: spec.Width, Height: spec.Height,
		Mode:           spec.Mode,
		PreserveOffset: spec.PreserveOffset,
	}

	g, err := h.Data(ch)
	if err != nil {
		return region, nil, err
	}
	sub := g.AreaExtract(spec.X, spec.Y, spec.Width, spec.Height)

	if spec.Mode == core.CropInPlace {
		if err := h.SetData(ch, sub); err != nil {
			return region, nil, err
		}
		f.Dirty = true
		c.logger.Debug("cropped in place", "channel", ch.Name,
			"width", spec.Width, "height", spec.Height)
		return region, ch, nil
	}

	meta := host.ChannelMeta{
		Name:    ch.Name + " (Cropped)",
		DX:      ch.DX,
		DY:      ch.DY,
		Palette: ch.Palette,
	}
	if ch.Range != nil {
		r := *ch.Range
		meta.Range = &r
	}
	if spec.PreserveOffset {
		meta.XOffset = ch.XOffset + float64(spec.X)*ch.DX
		meta.YOffset = ch.YOffset + float64(spec.Y)*ch.DY
	}
	out, err := h.CreateChannel(f, sub, meta)
	if err != nil {
		return region, nil, err
	}
	c.logger.Debug("cropped to new channel", "source", ch.Name,
		"channel", out.Name, "xoffset", out.XOffset, "yoffset", out.YOffset)
	return region, out, nil
}

// validateSpec checks the crop rectangle against channel bounds, naming
// the violated bound in the failure.
func validateSpec(ch *host.Channel, spec core.CropSpec) error {
	fail := func(field, format string, args ...any) error {
		return &core.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
	}
	switch {
	case spec.X < 0:
		return fail("x", "must not be negative (got %d)", spec.X)
	case spec.Y < 0:
		return fail("y", "must not be negative (got %d)", spec.Y)
	case spec.Width <= 0:
		return fail("width", "must be positive (got %d)", spec.Width)
	case spec.Height <= 0:
		return fail("height", "must be positive (got %d)", spec.Height)
	case spec.X+spec.Width > ch.Width:
		return fail("width", "x+width %d exceeds channel width %d",
			spec.X+spec.Width, ch.Width)
	case spec.Y+spec.Height > ch.Height:
		return fail("height", "y+height %d exceeds channel height %d",
			spec.Y+spec.Height, ch.Height)
	}
	switch spec.Mode {
	case core.CropInPlace, core.CropNewChannel:
	default:
		return fail("mode", "unknown crop mode: %q", string(spec.Mode))
	}
	return nil
}
