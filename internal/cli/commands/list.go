package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &FileOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the files and channels of the given containers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := config.GetLogger(cmd.Context())
			r := output.GetRenderer(cmd.Context())

			sess, err := openSession(logger, opts.Files)
			if err != nil {
				return err
			}

			if r.IsJSON() {
				type channelJSON struct {
					Name    string `json:"name"`
					Width   int    `json:"width"`
					Height  int    `json:"height"`
					Palette string `json:"palette,omitempty"`
					Steps   int    `json:"history_len"`
				}
				doc := make(map[string][]channelJSON)
				for _, f := range sess.host.ListFiles() {
					for _, ch := range sess.host.ListChannels(f) {
						doc[f.Name] = append(doc[f.Name], channelJSON{
							Name: ch.Name, Width: ch.Width, Height: ch.Height,
							Palette: ch.Palette, Steps: len(ch.History),
						})
					}
				}
				return r.JSON(doc)
			}

			var rows []table.Row
			for _, f := range sess.host.ListFiles() {
				for _, ch := range sess.host.ListChannels(f) {
					rows = append(rows, table.Row{
						f.Name, ch.Name,
						fmt.Sprintf("%dx%d", ch.Width, ch.Height),
						ch.Palette, len(ch.History),
					})
				}
			}
			r.Table(table.Row{"File", "Channel", "Size", "Palette", "History"}, rows)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Files, "files", "f", nil, "Container files to open")
	_ = cmd.MarkFlagRequired("files")

	return cmd
}
