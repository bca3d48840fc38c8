package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/selection"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// SaveOptions configures one save batch.
type SaveOptions struct {
	// Dir is the output directory for the produced containers.
	Dir string
	// Mode selects per-file or merged packaging.
	Mode core.SaveMode
	// MergedName is the base name of the merged container. Empty defaults
	// to "merged".
	MergedName string
}

// SaveBatcher packages processed channels into containers on disk.
type SaveBatcher struct {
	host   host.Host
	logger *slog.Logger
}

// NewSaveBatcher creates a batcher bound to h. A nil logger discards.
func NewSaveBatcher(h host.Host, logger *slog.Logger) *SaveBatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SaveBatcher{host: h, logger: logger}
}

// Save writes the selected channels as containers under opts.Dir. Per-file
// mode produces one container per source file; merged mode packs the whole
// selection into a single container, resolving channel name collisions
// first-writer-wins with a numeric suffix. A failed write fails only its
// own target.
func (b *SaveBatcher) Save(sel *selection.Model, opts SaveOptions) []core.SaveResult {
	if opts.Mode == core.SaveMerged {
		return []core.SaveResult{b.saveMerged(sel, opts)}
	}
	return b.savePerFile(sel, opts)
}

func (b *SaveBatcher) savePerFile(sel *selection.Model, opts SaveOptions) []core.SaveResult {
	// Group selected channels by file, preserving selection order within
	// each group and first-appearance order across groups.
	var order []*host.File
	grouped := make(map[*host.File][]*host.Channel)
	for _, e := range sel.Entries() {
		if _, seen := grouped[e.File]; !seen {
			order = append(order, e.File)
		}
		grouped[e.File] = append(grouped[e.File], e.Channel)
	}

	var results []core.SaveResult
	for _, f := range order {
		channels := grouped[f]
		res := core.SaveResult{Channels: len(channels)}

		if err := b.ensureRanges(channels); err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		path := processedPath(opts.Dir, baseName(f.Name))
		res.Path = path
		if err := b.host.SaveContainer(path, channels); err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		f.Dirty = false
		results = append(results, res)
	}
	return results
}

func (b *SaveBatcher) saveMerged(sel *selection.Model, opts SaveOptions) core.SaveResult {
	name := opts.MergedName
	if name == "" {
		name = "merged"
	}
	res := core.SaveResult{Channels: sel.Len()}

	var channels []*host.Channel
	for _, e := range sel.Entries() {
		channels = append(channels, e.Channel)
	}
	if err := b.ensureRanges(channels); err != nil {
		res.Err = err
		return res
	}

	// Resolve name collisions across source files: the first channel to
	// claim a name keeps it, later ones get a numeric suffix.
	taken := make(map[string]bool)
	packed := make([]*host.Channel, 0, len(channels))
	for _, ch := range channels {
		name := ch.Name
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s (%d)", ch.Name, n)
		}
		taken[name] = true
		if name != ch.Name {
			res.Renamed = append(res.Renamed, ch.Name+" -> "+name)
			ch = ch.WithName(name)
		}
		packed = append(packed, ch)
	}

	path := processedPath(opts.Dir, baseName(name))
	res.Path = path
	if err := b.host.SaveContainer(path, packed); err != nil {
		res.Err = err
		return res
	}
	for _, e := range sel.Entries() {
		e.File.Dirty = false
	}
	return res
}

// ensureRanges gives every channel a color range before packaging, falling
// back to the full data range where none was set.
func (b *SaveBatcher) ensureRanges(channels []*host.Channel) error {
	for _, ch := range channels {
		if ch.Range != nil {
			continue
		}
		g, err := b.host.Data(ch)
		if err != nil {
			return err
		}
		min, max := g.MinMax()
		ch.Range = &core.ColorRange{Mode: core.RangeFull, Min: min, Max: max}
		b.logger.Debug("defaulted color range before save",
			"channel", ch.Name, "min", min, "max", max)
	}
	return nil
}

// processedPath picks the output path for base, appending a numeric suffix
// while the candidate already exists on disk.
func processedPath(dir, base string) string {
	candidate := filepath.Join(dir, base+"_processed.json")
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_processed_%d.json", base, n))
	}
}

// baseName strips any directory and extension from a display name.
func baseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
