package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
	"github.com/scanprobe/spmbatch/internal/engine"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// SaveOptions holds options for the save command.
type SaveOptions struct {
	FileOptions
	Dir     string
	PerFile bool
	Merged  string
}

// NewSaveCommand creates the save command.
func NewSaveCommand() *cobra.Command {
	opts := &SaveOptions{}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save selected channels as processed containers",
		Long: `Package the selected channels into containers under the output
directory. By default one container is written per source file; --merged
packs the whole selection into a single container, renaming colliding
channel names. Existing outputs are never overwritten; a numeric suffix is
appended instead.`,
		Example: `  # One processed container per source file
  spmbatch save --files a.json,b.json --dir out/

  # Everything in one container
  spmbatch save --files a.json,b.json --merged session --dir out/`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSave(cmd, opts)
		},
	}

	addFileFlags(cmd, &opts.FileOptions)
	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&opts.PerFile, "per-file", false, "One container per source file (the default)")
	cmd.Flags().StringVar(&opts.Merged, "merged", "", "Merge the selection into one container with this base name")
	cmd.MarkFlagsMutuallyExclusive("per-file", "merged")

	return cmd
}

func runSave(cmd *cobra.Command, opts *SaveOptions) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
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

	dir := opts.Dir
	if dir == "" {
		dir = cfg.SaveDir
	}
	saveOpts := engine.SaveOptions{Dir: dir, Mode: core.SavePerFile}
	if opts.Merged != "" {
		saveOpts.Mode = core.SaveMerged
		saveOpts.MergedName = opts.Merged
	}

	batcher := engine.NewSaveBatcher(sess.host, logger)
	results := batcher.Save(sel, saveOpts)

	if r.IsJSON() {
		type saveJSON struct {
			Path     string   `json:"path"`
			Channels int      `json:"channels"`
			Renamed  []string `json:"renamed,omitempty"`
			Error    string   `json:"error,omitempty"`
		}
		doc := make([]saveJSON, 0, len(results))
		for _, res := range results {
			entry := saveJSON{Path: res.Path, Channels: res.Channels, Renamed: res.Renamed}
			if res.Err != nil {
				entry.Error = res.Err.Error()
			}
			doc = append(doc, entry)
		}
		return r.JSON(doc)
	}

	rows := make([]table.Row, 0, len(results))
	var failed int
	for _, res := range results {
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
			failed++
		}
		rows = append(rows, table.Row{res.Path, res.Channels, strings.Join(res.Renamed, ", "), errMsg})
	}
	r.Table(table.Row{"Path", "Channels", "Renamed", "Error"}, rows)
	if failed > 0 {
		r.Warn(fmt.Sprintf("%d of %d containers failed", failed, len(results)))
	} else {
		r.Success(fmt.Sprintf("%d containers written", len(results)))
	}
	return nil
}
