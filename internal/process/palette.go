package process

import (
	"io"
	"log/slog"

	"github.com/scanprobe/spmbatch/internal/host"
)

// PaletteApplier assigns gradients from the host's inventory.
type PaletteApplier struct {
	logger *slog.Logger
}

// NewPaletteApplier creates an applier. A nil logger discards.
func NewPaletteApplier(logger *slog.Logger) *PaletteApplier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PaletteApplier{logger: logger}
}

// Apply sets ch's palette to the named gradient. The name must exist in
// the host's inventory; unknown names fail without touching the channel.
func (p *PaletteApplier) Apply(h host.Host, ch *host.Channel, name string) error {
	g, err := h.Palette(name)
	if err != nil {
		return err
	}
	ch.Palette = g.Name
	p.logger.Debug("applied gradient", "channel", ch.Name, "gradient", g.Name)
	return nil
}
