package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/process"
	"github.com/scanprobe/spmbatch/internal/selection"
)

// GradientOptions holds options for the gradient command.
type GradientOptions struct {
	FileOptions
	Name string
}

// NewGradientCommand creates the gradient command.
func NewGradientCommand() *cobra.Command {
	opts := &GradientOptions{}

	cmd := &cobra.Command{
		Use:   "gradient",
		Short: "Assign a false-color gradient to selected channels",
		Long: `Assign a gradient from the host inventory to every selected channel.
Unknown gradient names fail per channel; use the palettes command to list
the inventory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := opts.Name
			if name == "" {
				name = config.GetConfig(cmd.Context()).PaletteDefault
			}
			applier := process.NewPaletteApplier(config.GetLogger(cmd.Context()))
			return runBatch(cmd, &opts.FileOptions, func(h host.Host, e selection.Entry, _ int) error {
				if err := applier.Apply(h, e.Channel, name); err != nil {
					return err
				}
				e.File.Dirty = true
				return nil
			})
		},
	}

	addFileFlags(cmd, &opts.FileOptions)
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Gradient name (default from config)")

	return cmd
}

// NewPalettesCommand creates the palettes command.
func NewPalettesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "palettes",
		Short: "List the gradient inventory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := config.GetLogger(cmd.Context())
			r := output.GetRenderer(cmd.Context())

			h := host.NewMemHost(logger)
			names := h.ListPalettes()

			if r.IsJSON() {
				return r.JSON(names)
			}
			rows := make([]table.Row, 0, len(names))
			for _, name := range names {
				rows = append(rows, table.Row{name})
			}
			r.Table(table.Row{"Gradient"}, rows)
			return nil
		},
	}
}
