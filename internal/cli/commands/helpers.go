// Package commands implements the spmbatch subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/scanprobe/spmbatch/internal/cli/config"
	"github.com/scanprobe/spmbatch/internal/cli/output"
	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/selection"
	"github.com/scanprobe/spmbatch/internal/state"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// FileOptions are the flags shared by every data-facing command.
type FileOptions struct {
	// Files are the container paths to open.
	Files []string
	// Select is the selection spec: "all", "nth:<k>", or comma-separated
	// "file[:channel]" references.
	Select string
}

func addFileFlags(cmd *cobra.Command, opts *FileOptions) {
	cmd.Flags().StringSliceVarP(&opts.Files, "files", "f", nil, "Container files to open")
	cmd.Flags().StringVarP(&opts.Select, "select", "s", "all", "Selection: all, nth:<k>, or file[:channel] list")
	_ = cmd.MarkFlagRequired("files")
}

// session is one opened host plus the source path of each file, so
// modified containers can be written back in place.
type session struct {
	host  *host.MemHost
	paths map[*host.File]string
}

// openSession opens the given container files into a fresh host.
func openSession(logger *slog.Logger, files []string) (*session, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no container files given")
	}
	h := host.NewMemHost(logger)
	s := &session{host: h, paths: make(map[*host.File]string)}
	for _, path := range files {
		f, err := h.OpenContainer(path)
		if err != nil {
			return nil, err
		}
		s.paths[f] = path
	}
	return s, nil
}

// selectChannels builds the selection for spec, pruning on file close.
func (s *session) selectChannels(spec string) (*selection.Model, error) {
	var (
		sel *selection.Model
		err error
	)
	switch {
	case spec == "" || spec == "all":
		sel = selection.SelectAll(s.host)
	case strings.HasPrefix(spec, "nth:"):
		n, convErr := strconv.Atoi(strings.TrimPrefix(spec, "nth:"))
		if convErr != nil {
			return nil, fmt.Errorf("invalid selection %q: %v", spec, convErr)
		}
		sel = selection.SelectIndex(s.host, n)
	default:
		refs := strings.Split(spec, ",")
		for i := range refs {
			refs[i] = strings.TrimSpace(refs[i])
		}
		sel, err = selection.SelectNamed(s.host, refs)
		if err != nil {
			return nil, err
		}
	}
	if sel.Len() == 0 {
		return nil, fmt.Errorf("selection %q matches no channels", spec)
	}
	s.host.OnFileClose(sel.PruneFile)
	return sel, nil
}

// writeBack saves every dirty file to its source path.
func (s *session) writeBack() error {
	for _, f := range s.host.ListFiles() {
		if !f.Dirty {
			continue
		}
		path, ok := s.paths[f]
		if !ok {
			continue
		}
		if err := s.host.SaveContainer(path, s.host.ListChannels(f)); err != nil {
			return err
		}
		f.Dirty = false
	}
	return nil
}

// runBatch opens the containers, applies fn to every selected channel,
// writes dirty containers back, and renders the per-channel outcomes.
// A failing channel never stops the batch.
func runBatch(cmd *cobra.Command, opts *FileOptions, fn func(h host.Host, e selection.Entry, index int) error) error {
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

	var results []core.ChannelResult
	for i, e := range sel.Entries() {
		res := core.ChannelResult{File: e.File.Name, Channel: e.Channel.Name}
		if err := fn(sess.host, e, i+1); err != nil {
			res.Status = core.ResultFailed
			res.Err = err
		} else {
			res.Status = core.ResultSucceeded
			res.StepsApplied = 1
		}
		results = append(results, res)
	}

	if err := sess.writeBack(); err != nil {
		return err
	}
	return renderResults(r, results)
}

// renderResults shows per-channel outcomes as a table or JSON document.
func renderResults(r *output.Renderer, results []core.ChannelResult) error {
	if r.IsJSON() {
		type resultJSON struct {
			File    string `json:"file"`
			Channel string `json:"channel"`
			Status  string `json:"status"`
			Error   string `json:"error,omitempty"`
		}
		doc := make([]resultJSON, 0, len(results))
		for _, res := range results {
			doc = append(doc, resultJSON{
				File: res.File, Channel: res.Channel,
				Status: string(res.Status), Error: res.ErrString(),
			})
		}
		return r.JSON(doc)
	}

	rows := make([]table.Row, 0, len(results))
	var failed int
	for _, res := range results {
		rows = append(rows, table.Row{res.File, res.Channel, string(res.Status), res.ErrString()})
		if res.Status == core.ResultFailed {
			failed++
		}
	}
	r.Table(table.Row{"File", "Channel", "Status", "Error"}, rows)
	if failed > 0 {
		r.Warn(fmt.Sprintf("%d of %d channels failed", failed, len(results)))
	} else {
		r.Success(fmt.Sprintf("%d channels processed", len(results)))
	}
	return nil
}

// openStore opens the replay history store, creating its directory when
// needed. An empty state path disables recording.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if cfg.StatePath == "" {
		return nil, nil
	}
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	return store, nil
}
