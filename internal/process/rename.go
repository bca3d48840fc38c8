package process

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// RenameEngine applies a name template across a batch of channels.
// Uniqueness is enforced per file: the first channel to claim a name keeps
// it, later claimants fail with a duplicate-name error.
type RenameEngine struct {
	logger *slog.Logger
}

// NewRenameEngine creates an engine. A nil logger discards.
func NewRenameEngine(logger *slog.Logger) *RenameEngine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RenameEngine{logger: logger}
}

// Target is one channel to rename, with its 1-based position in the batch.
type Target struct {
	File    *host.File
	Channel *host.Channel
	Index   int
}

// Renamed reports one applied rename.
type Renamed struct {
	File    *host.File
	Channel *host.Channel
	Old     string
	New     string
}

// Claims tracks names assigned within each file during one batch, on top
// of the names the files already hold. Sharing one Claims value across
// calls extends first-writer-wins to a whole replay run.
type Claims map[*host.File]map[string]bool

func (c Claims) mark(f *host.File, name string) {
	if c[f] == nil {
		c[f] = make(map[string]bool)
	}
	c[f][name] = true
}

// Apply expands template for each target and renames the channels that can
// take their new name. Recognized tokens: {index} (the target's 1-based
// batch position) and {name} (the current channel name). Collisions are
// per-item failures; the rest of the batch proceeds.
func (r *RenameEngine) Apply(h host.Host, template string, targets []Target) ([]Renamed, map[*host.Channel]error) {
	return r.ApplyWith(h, template, targets, make(Claims))
}

// ApplyWith is Apply with caller-owned claim state.
func (r *RenameEngine) ApplyWith(h host.Host, template string, targets []Target, claimed Claims) ([]Renamed, map[*host.Channel]error) {
	taken := func(f *host.File, name string, self *host.Channel) bool {
		for _, ch := range h.ListChannels(f) {
			if ch != self && ch.Name == name {
				return true
			}
		}
		return claimed[f][name]
	}

	var renames []Renamed
	failures := make(map[*host.Channel]error)
	for _, t := range targets {
		name := Expand(template, t.Index, t.Channel.Name)
		if name == "" {
			failures[t.Channel] = &core.ValidationError{
				Field:   "template",
				Message: "expands to an empty name",
			}
			continue
		}
		if name == t.Channel.Name {
			// Renaming to the current name is a no-op, not a collision.
			continue
		}
		if taken(t.File, name, t.Channel) {
			failures[t.Channel] = &core.DuplicateNameError{Name: name}
			r.logger.Warn("rename collision", "file", t.File.Name,
				"channel", t.Channel.Name, "wanted", name)
			continue
		}
		claimed.mark(t.File, name)

		old := t.Channel.Name
		t.Channel.Name = name
		t.File.Dirty = true
		renames = append(renames, Renamed{
			File: t.File, Channel: t.Channel, Old: old, New: name,
		})
		r.logger.Debug("renamed channel", "file", t.File.Name,
			"old", old, "new", name)
	}
	return renames, failures
}

// Expand substitutes the rename tokens into template.
func Expand(template string, index int, name string) string {
	out := strings.ReplaceAll(template, "{index}", strconv.Itoa(index))
	out = strings.ReplaceAll(out, "{name}", name)
	return strings.TrimSpace(out)
}
