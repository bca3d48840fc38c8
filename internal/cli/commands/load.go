package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
	"github.com/scanprobe/spmbatch/internal/macro"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <logfile>",
		Short: "Parse a processing log and show the resulting macro",
		Long: `Parse an exported processing log and display the replayable steps in
recorded order, along with any lines that were skipped or defaulted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.GetLogger(cmd.Context())
			r := output.GetRenderer(cmd.Context())

			parser := macro.NewParser(logger)
			m, warnings, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}

			if r.IsJSON() {
				type stepJSON struct {
					Op     string `json:"op"`
					Detail string `json:"detail"`
					Line   int    `json:"line"`
				}
				doc := struct {
					Steps    []stepJSON `json:"steps"`
					Warnings []string   `json:"warnings,omitempty"`
				}{}
				for _, s := range m.Steps {
					doc.Steps = append(doc.Steps, stepJSON{
						Op: string(s.Op), Detail: s.Describe(), Line: s.Line,
					})
				}
				for _, w := range warnings {
					doc.Warnings = append(doc.Warnings, w.Error())
				}
				return r.JSON(doc)
			}

			r.Header(fmt.Sprintf("Macro: %d steps", m.Len()))
			rows := make([]table.Row, 0, m.Len())
			for i, s := range m.Steps {
				rows = append(rows, table.Row{i + 1, string(s.Op), s.Describe(), s.Line})
			}
			r.Table(table.Row{"#", "Op", "Recorded", "Line"}, rows)

			for _, w := range warnings {
				r.Warn("warning: " + w.Error())
			}
			return nil
		},
	}
}
