package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show replay history",
		Long: `List recent replay runs from the history database, or show the
per-channel results of one run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.GetConfig(ctx)
			logger := config.GetLogger(ctx)
			r := output.GetRenderer(ctx)

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("no state database configured")
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.GetRun(args[0])
				if err != nil {
					return err
				}
				results, err := store.ResultsForRun(run.ID)
				if err != nil {
					return err
				}
				r.Header(fmt.Sprintf("Run %s: %s", run.ID, run.Status))
				rows := make([]table.Row, 0, len(results))
				for _, res := range results {
					rows = append(rows, table.Row{
						res.File, res.Channel, string(res.Status),
						res.StepsApplied, res.ErrString(),
					})
				}
				r.Table(table.Row{"File", "Channel", "Status", "Steps", "Error"}, rows)
				return nil
			}

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(runs))
			for _, run := range runs {
				completed := ""
				if run.CompletedAt != nil {
					completed = run.CompletedAt.Format(time.RFC3339)
				}
				rows = append(rows, table.Row{
					run.ID, string(run.Status),
					run.StartedAt.Format(time.RFC3339), completed,
				})
			}
			r.Table(table.Row{"ID", "Status", "Started", "Completed"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
