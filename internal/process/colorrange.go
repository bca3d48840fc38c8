// Package process implements the processing primitives replay dispatches
// to: color-range mapping, crop resolution, batch rename, and palette
// application. Each primitive either updates channel state or returns a
// typed failure; none of them touches more than the one channel it was
// given.
package process

import (
	"io"
	"log/slog"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// RangeParams describes one color-range request.
type RangeParams struct {
	// Mode selects how min/max are derived. Empty keeps the channel's
	// current mode and bounds (used for a bare invert toggle).
	Mode core.RangeMode
	// Min, Max are used only with RangeFixed.
	Min, Max float64
	// Invert toggles the inverted flag. Toggling twice is the identity.
	Invert bool
}

// ColorRangeComputer computes and applies color-mapping policies.
type ColorRangeComputer struct {
	logger *slog.Logger
}

// NewColorRangeComputer creates a computer. A nil logger discards.
func NewColorRangeComputer(logger *slog.Logger) *ColorRangeComputer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ColorRangeComputer{logger: logger}
}

// Apply computes the new ColorRange for ch and stores it on the channel.
// Data values are never mutated: inversion flips a flag, and ZeroToMin
// never lifts a negative minimum to zero.
func (c *ColorRangeComputer) Apply(h host.Host, ch *host.Channel, p RangeParams) (*core.ColorRange, error) {
	cur := core.ColorRange{Mode: core.RangeFull}
	if ch.Range != nil {
		cur = *ch.Range
	}

	switch p.Mode {
	case "":
		// Keep current mode and bounds.
	case core.RangeFixed:
		if p.Min > p.Max {
			return nil, &core.ValidationError{
				Field:   "range",
				Message: "min must not exceed max",
			}
		}
		cur.Mode = core.RangeFixed
		cur.Min, cur.Max = p.Min, p.Max
	case core.RangeFull:
		min, max, err := dataExtrema(h, ch)
		if err != nil {
			return nil, err
		}
		cur.Mode = core.RangeFull
		cur.Min, cur.Max = min, max
	case core.RangeZeroToMin:
		min, max, err := dataExtrema(h, ch)
		if err != nil {
			return nil, err
		}
		if min >= 0 {
			min = 0
		}
		cur.Mode = core.RangeZeroToMin
		cur.Min, cur.Max = min, max
	default:
		return nil, &core.ValidationError{
			Field:   "mode",
			Message: "unknown range mode: " + string(p.Mode),
		}
	}

	if p.Invert {
		cur.Inverted = !cur.Inverted
	}

	ch.Range = &cur
	c.logger.Debug("applied color range", "channel", ch.Name,
		"mode", string(cur.Mode), "min", cur.Min, "max", cur.Max,
		"inverted", cur.Inverted)
	return &cur, nil
}

func dataExtrema(h host.Host, ch *host.Channel) (min, max float64, err error) {
	g, err := h.Data(ch)
	if err != nil {
		return 0, 0, err
	}
	min, max = g.MinMax()
	return min, max, nil
}
