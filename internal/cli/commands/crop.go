package commands

import (
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/process"
	"github.com/scanprobe/spmbatch/internal/selection"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// CropOptions holds options for the crop command.
type CropOptions struct {
	FileOptions
	X, Y          int
	Width, Height int
	New           bool
	KeepOffsets   bool
}

// NewCropCommand creates the crop command.
func NewCropCommand() *cobra.Command {
	opts := &CropOptions{}

	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Crop selected channels to a pixel rectangle",
		Long: `Extract the rectangle (x, y, width, height) from every selected channel.
By default the channel is cropped in place; --new produces a "(Cropped)"
channel next to the source instead. Rectangles that do not fit a channel
fail that channel only.`,
		Example: `  # Crop every channel in place
  spmbatch crop --x 10 --y 10 --width 50 --height 50 --files scan.json

  # Keep sources, preserve physical offsets on the crops
  spmbatch crop --x 10 --y 10 --width 50 --height 50 --new --keep-offsets --files scan.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver := process.NewCropResolver(config.GetLogger(cmd.Context()))
			spec := core.CropSpec{
				X:              opts.X,
				Y:              opts.Y,
				Width:          opts.Width,
				Height:         opts.Height,
				Mode:           core.CropInPlace,
				PreserveOffset: opts.KeepOffsets,
			}
			if opts.New {
				spec.Mode = core.CropNewChannel
			}
			return runBatch(cmd, &opts.FileOptions, func(h host.Host, e selection.Entry, _ int) error {
				_, _, err := resolver.Resolve(h, e.File, e.Channel, spec)
				return err
			})
		},
	}

	addFileFlags(cmd, &opts.FileOptions)
	cmd.Flags().IntVar(&opts.X, "x", 0, "Rectangle origin column")
	cmd.Flags().IntVar(&opts.Y, "y", 0, "Rectangle origin row")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Rectangle width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "Rectangle height in pixels")
	cmd.Flags().BoolVar(&opts.New, "new", false, "Crop into a new channel instead of in place")
	cmd.Flags().BoolVar(&opts.KeepOffsets, "keep-offsets", false, "Preserve the source's lateral offsets on the crop")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}
