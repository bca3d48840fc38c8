package commands

import (
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/process"
	"github.com/scanprobe/spmbatch/internal/selection"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// RangeOptions holds options for the range command.
type RangeOptions struct {
	FileOptions
	Mode   string
	Min    float64
	Max    float64
	Invert bool
}

// NewRangeCommand creates the range command.
func NewRangeCommand() *cobra.Command {
	opts := &RangeOptions{}

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Apply a color range policy to selected channels",
		Long: `Set the false-color mapping of every selected channel: a fixed min/max,
the full data range, or zero-to-minimum. --invert flips the mapping
without touching the data.`,
		Example: `  # Fix the mapping of every channel to 0..255
  spmbatch range --mode fixed --min 0 --max 255 --files scan.json

  # Invert the current mapping only
  spmbatch range --invert --files scan.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			computer := process.NewColorRangeComputer(config.GetLogger(cmd.Context()))
			params := process.RangeParams{
				Mode:   core.RangeMode(opts.Mode),
				Min:    opts.Min,
				Max:    opts.Max,
				Invert: opts.Invert,
			}
			return runBatch(cmd, &opts.FileOptions, func(h host.Host, e selection.Entry, _ int) error {
				if _, err := computer.Apply(h, e.Channel, params); err != nil {
					return err
				}
				e.File.Dirty = true
				return nil
			})
		},
	}

	addFileFlags(cmd, &opts.FileOptions)
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Range mode (fixed|full|zeromin); empty keeps the current mode")
	cmd.Flags().Float64Var(&opts.Min, "min", 0, "Fixed range minimum")
	cmd.Flags().Float64Var(&opts.Max, "max", 0, "Fixed range maximum")
	cmd.Flags().BoolVar(&opts.Invert, "invert", false, "Toggle inverted mapping")

	return cmd
}
