package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
	"github.com/scanprobe/spmbatch/internal/engine"
	"github.com/scanprobe/spmbatch/internal/macro"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// ReplayOptions holds options for the replay command.
type ReplayOptions struct {
	FileOptions
	Log    string
	DryRun bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand() *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded macro over selected channels",
		Long: `Parse a processing log and apply its steps, in recorded order, to every
selected channel. A failing channel is reported and skipped; the rest of
the batch still runs. Modified containers are written back in place unless
--dry-run is given.`,
		Example: `  # Replay a log over every channel of two containers
  spmbatch replay --log session.log --files a.json,b.json

  # Replay over the first channel of each container, JSON progress events
  spmbatch replay --log session.log --files a.json --select nth:0 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd, opts)
		},
	}

	addFileFlags(cmd, &opts.FileOptions)
	cmd.Flags().StringVarP(&opts.Log, "log", "l", "", "Processing log to replay")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Do not write containers back")
	_ = cmd.MarkFlagRequired("log")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	r := output.GetRenderer(ctx)

	parser := macro.NewParser(logger)
	m, warnings, err := parser.ParseFile(opts.Log)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		r.Warn("log warning: " + w.Error())
	}
	if m.Len() == 0 {
		return fmt.Errorf("log %s contains no replayable steps", opts.Log)
	}

	sess, err := openSession(logger, opts.Files)
	if err != nil {
		return err
	}
	sel, err := sess.selectChannels(opts.Select)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	var engStore engine.Store
	if store != nil {
		defer store.Close()
		engStore = store
	}

	eng := engine.New(sess.host, engStore, logger)
	started := time.Now()
	run, results, err := eng.Replay(ctx, m, sel)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if err := sess.writeBack(); err != nil {
			return err
		}
	}

	if r.IsJSON() {
		return emitReplayEvents(r, run, results, time.Since(started))
	}
	return renderReplay(r, run, results, time.Since(started))
}

func renderReplay(r *output.Renderer, run *core.ReplayRun, results []core.ChannelResult, elapsed time.Duration) error {
	rows := make([]table.Row, 0, len(results))
	var failed int
	for _, res := range results {
		rows = append(rows, table.Row{
			res.File, res.Channel, string(res.Status), res.StepsApplied, res.ErrString(),
		})
		if res.Status == core.ResultFailed {
			failed++
		}
	}
	r.Table(table.Row{"File", "Channel", "Status", "Steps", "Error"}, rows)

	summary := fmt.Sprintf("Run %s: %s (%d channels, %d failed) in %s",
		run.ID, run.Status, len(results), failed, elapsed.Round(time.Millisecond))
	if failed > 0 {
		r.Warn(summary)
	} else {
		r.Success(summary)
	}
	return nil
}

func emitReplayEvents(r *output.Renderer, run *core.ReplayRun, results []core.ChannelResult, elapsed time.Duration) error {
	emit := func(ev output.ReplayEvent) error {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
		return r.JSONLine(ev)
	}

	if err := emit(output.ReplayEvent{
		Event: "run_start", RunID: run.ID, Channels: len(results),
	}); err != nil {
		return err
	}

	var succeeded, failed, skipped int
	for _, res := range results {
		switch res.Status {
		case core.ResultSucceeded:
			succeeded++
		case core.ResultFailed:
			failed++
		case core.ResultSkipped:
			skipped++
		}
		if err := emit(output.ReplayEvent{
			Event:        "channel_complete",
			RunID:        run.ID,
			File:         res.File,
			Channel:      res.Channel,
			Status:       string(res.Status),
			StepsApplied: res.StepsApplied,
			Error:        res.ErrString(),
		}); err != nil {
			return err
		}
	}

	return emit(output.ReplayEvent{
		Event:     "run_complete",
		RunID:     run.ID,
		Status:    string(run.Status),
		Channels:  len(results),
		Succeeded: succeeded,
		Failed:    failed,
		Skipped:   skipped,
		TotalMS:   elapsed.Milliseconds(),
	})
}
