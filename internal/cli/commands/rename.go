package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
	"github.com/scanprobe/spmbatch/internal/process"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// RenameOptions holds options for the rename command.
type RenameOptions struct {
	FileOptions
	Template string
}

// NewRenameCommand creates the rename command.
func NewRenameCommand() *cobra.Command {
	opts := &RenameOptions{}

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename selected channels from a template",
		Long: `Expand a template for every selected channel and apply the results.
Tokens: {index} is the channel's 1-based position in the selection,
{name} is its current name. Within a file, the first channel to claim a
name keeps it; later claimants fail with a duplicate-name error.`,
		Example: `  # Number the channels
  spmbatch rename --template "topo {index}" --files scan.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRename(cmd, opts)
		},
	}

	addFileFlags(cmd, &opts.FileOptions)
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "Name template ({index}, {name})")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func runRename(cmd *cobra.Command, opts *RenameOptions) error {
	ctx := cmd.Context()
	logger := config.GetLogger(ctx)
	r := output.GetRenderer(ctx)

	sess, err := openSession(logger, opts.Files)
	if err != nil {
		return err
	}
	sel, err := sess.selectChannels(opts.Select)
	if err != nil {
		return err
	}

	targets := make([]process.Target, 0, sel.Len())
	for i, e := range sel.Entries() {
		targets = append(targets, process.Target{
			File: e.File, Channel: e.Channel, Index: i + 1,
		})
	}

	renamer := process.NewRenameEngine(logger)
	renames, failures := renamer.Apply(sess.host, opts.Template, targets)
	if err := sess.writeBack(); err != nil {
		return err
	}

	results := make([]core.ChannelResult, 0, len(targets))
	for _, t := range targets {
		res := core.ChannelResult{File: t.File.Name, Channel: t.Channel.Name, Status: core.ResultSucceeded}
		if failErr, ok := failures[t.Channel]; ok {
			res.Status = core.ResultFailed
			res.Err = failErr
		}
		results = append(results, res)
	}
	if r.IsJSON() {
		return renderResults(r, results)
	}

	rows := make([]table.Row, 0, len(renames))
	for _, rn := range renames {
		rows = append(rows, table.Row{rn.File.Name, rn.Old, rn.New})
	}
	r.Table(table.Row{"File", "Old", "New"}, rows)
	if len(failures) > 0 {
		for ch, failErr := range failures {
			r.Warn(fmt.Sprintf("%s: %v", ch.Name, failErr))
		}
		r.Warn(fmt.Sprintf("%d of %d channels failed", len(failures), len(targets)))
	} else {
		r.Success(fmt.Sprintf("%d channels renamed", len(renames)))
	}
	return nil
}
