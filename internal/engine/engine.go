// Package engine replays parsed macros against selected channels and
// batches processed channels into saved containers. Failures are isolated
// per channel and per save target; the engine itself never aborts a batch.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/process"
	"github.com/scanprobe/spmbatch/internal/selection"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// Store records replay runs and their per-channel results. A nil Store
// disables recording.
type Store interface {
	CreateRun(run *core.ReplayRun) error
	CompleteRun(id string, status core.RunStatus, errMsg string) error
	RecordResult(runID string, res core.ChannelResult) error
}

// Engine dispatches macro steps to the processing primitives.
type Engine struct {
	host   host.Host
	store  Store
	logger *slog.Logger

	ranges   *process.ColorRangeComputer
	crops    *process.CropResolver
	renames  *process.RenameEngine
	palettes *process.PaletteApplier
}

// New creates an engine bound to h. store may be nil; a nil logger
// discards.
func New(h host.Host, store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		host:     h,
		store:    store,
		logger:   logger,
		ranges:   process.NewColorRangeComputer(logger),
		crops:    process.NewCropResolver(logger),
		renames:  process.NewRenameEngine(logger),
		palettes: process.NewPaletteApplier(logger),
	}
}

// Replay applies every step of macro, in recorded order, to every selected
// channel. A step failure fails only that channel; the remaining channels
// still run the full macro. Cancellation is honored between channels: the
// channel in flight finishes, the rest are marked skipped.
func (e *Engine) Replay(ctx context.Context, macro *core.Macro, sel *selection.Model) (*core.ReplayRun, []core.ChannelResult, error) {
	run := &core.ReplayRun{
		ID:        uuid.New().String(),
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if e.store != nil {
		if err := e.store.CreateRun(run); err != nil {
			return nil, nil, fmt.Errorf("record run: %w", err)
		}
	}
	e.logger.Info("replay started", "run", run.ID,
		"steps", macro.Len(), "channels", sel.Len())

	// claims carries rename first-writer-wins state across the whole run.
	claims := make(process.Claims)

	var (
		results   []core.ChannelResult
		cancelled bool
	)
	for i, entry := range sel.Entries() {
		if cancelled || ctx.Err() != nil {
			cancelled = true
			results = append(results, core.ChannelResult{
				File:    entry.File.Name,
				Channel: entry.Channel.Name,
				Status:  core.ResultSkipped,
				Err:     ctx.Err(),
			})
			continue
		}
		results = append(results, e.replayChannel(macro, entry, i+1, claims))
	}

	status := core.RunStatusCompleted
	if cancelled {
		status = core.RunStatusCancelled
	}
	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now

	if e.store != nil {
		for _, res := range results {
			if err := e.store.RecordResult(run.ID, res); err != nil {
				e.logger.Warn("failed to record result", "run", run.ID,
					"channel", res.Channel, "error", err)
			}
		}
		if err := e.store.CompleteRun(run.ID, status, ""); err != nil {
			e.logger.Warn("failed to complete run", "run", run.ID, "error", err)
		}
	}
	e.logger.Info("replay finished", "run", run.ID, "status", string(status))
	return run, results, nil
}

// replayChannel runs the macro against one selection entry. The first
// failing step stops this channel; steps already applied stay applied.
func (e *Engine) replayChannel(macro *core.Macro, entry selection.Entry, index int, claims process.Claims) core.ChannelResult {
	res := core.ChannelResult{
		File:    entry.File.Name,
		Channel: entry.Channel.Name,
		Status:  core.ResultSucceeded,
	}

	// Crops in new-channel mode redirect the rest of the macro to the
	// channel they produce.
	cur := entry.Channel
	for _, step := range macro.Steps {
		next, err := e.applyStep(&step, entry.File, cur, index, claims)
		if err != nil {
			res.Status = core.ResultFailed
			res.Err = err
			e.logger.Warn("step failed", "file", entry.File.Name,
				"channel", cur.Name, "op", string(step.Op), "error", err)
			break
		}
		cur = next
		cur.History = append(cur.History, step.Describe())
		res.StepsApplied++
	}
	if res.StepsApplied > 0 {
		entry.File.Dirty = true
	}
	return res
}

// applyStep dispatches one step and returns the channel subsequent steps
// should target.
func (e *Engine) applyStep(step *core.Step, f *host.File, ch *host.Channel, index int, claims process.Claims) (*host.Channel, error) {
	switch step.Op {
	case core.OpColorRange:
		params := process.RangeParams{
			Mode:   core.RangeMode(step.Str("mode", "")),
			Min:    step.Float("min", 0),
			Max:    step.Float("max", 0),
			Invert: step.Flag("invert", false),
		}
		// Recorded min/max without a mode means a fixed mapping.
		if params.Mode == "" {
			if _, ok := step.Params["min"]; ok {
				params.Mode = core.RangeFixed
			} else if _, ok := step.Params["max"]; ok {
				params.Mode = core.RangeFixed
			}
		}
		_, err := e.ranges.Apply(e.host, ch, params)
		return ch, err

	case core.OpCrop:
		spec := core.CropSpec{
			X:              step.Int("x", 0),
			Y:              step.Int("y", 0),
			Width:          step.Int("width", 0),
			Height:         step.Int("height", 0),
			Mode:           core.CropMode(step.Str("mode", string(core.CropInPlace))),
			PreserveOffset: step.Flag("preserveOffset", false),
		}
		_, out, err := e.crops.Resolve(e.host, f, ch, spec)
		if err != nil {
			return ch, err
		}
		if out != ch {
			// The crop output carries the source's processing history.
			out.History = append([]string(nil), ch.History...)
		}
		return out, nil

	case core.OpRename:
		template := step.Str("template", "{name}")
		targets := []process.Target{{File: f, Channel: ch, Index: index}}
		_, failures := e.renames.ApplyWith(e.host, template, targets, claims)
		if err, ok := failures[ch]; ok {
			return ch, err
		}
		return ch, nil

	case core.OpGradient:
		name := step.Str("name", "")
		if name == "" {
			return ch, &core.ValidationError{Field: "name", Message: "gradient name is required"}
		}
		return ch, e.palettes.Apply(e.host, ch, name)

	default:
		return ch, &core.ValidationError{
			Field:   "op",
			Message: fmt.Sprintf("operation %q cannot be replayed", string(step.Op)),
		}
	}
}
