package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/macro"
	"github.com/scanprobe/spmbatch/internal/selection"
	"github.com/scanprobe/spmbatch/internal/testutil"
	"github.com/scanprobe/spmbatch/pkg/core"
)

// memStore records calls for assertions.
type memStore struct {
	runs      []*core.ReplayRun
	completed map[string]core.RunStatus
	results   map[string][]core.ChannelResult
}

func newMemStore() *memStore {
	return &memStore{
		completed: make(map[string]core.RunStatus),
		results:   make(map[string][]core.ChannelResult),
	}
}

func (s *memStore) CreateRun(run *core.ReplayRun) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *memStore) CompleteRun(id string, status core.RunStatus, _ string) error {
	s.completed[id] = status
	return nil
}

func (s *memStore) RecordResult(runID string, res core.ChannelResult) error {
	s.results[runID] = append(s.results[runID], res)
	return nil
}

func parseMacro(t *testing.T, text string) *core.Macro {
	t.Helper()
	m, warnings := macro.NewParser(nil).Parse(text)
	require.Empty(t, warnings)
	return m
}

func replayFixture(t *testing.T) (*host.MemHost, *selection.Model) {
	t.Helper()
	mh := host.NewMemHost(testutil.NewTestLogger(t))
	f := mh.AddFile("scan")
	for _, name := range []string{"Topo", "Phase", "Error"} {
		g := host.NewGrid(100, 100)
		for i := range g.Samples {
			g.Samples[i] = float64(i % 512)
		}
		mh.AddChannel(f, name, g, host.ChannelMeta{DX: 1, DY: 1})
	}
	return mh, selection.SelectAll(mh)
}

const fullMacro = `ColorRange
  mode = fixed
  min = 0
  max = 255

Crop
  x = 10
  y = 10
  width = 50
  height = 50
  mode = new
  preserveOffset = true

Gradient
  name = Gwyddion.net
`

func TestReplayAppliesAllSteps(t *testing.T) {
	mh, sel := replayFixture(t)
	store := newMemStore()
	eng := New(mh, store, testutil.NewTestLogger(t))

	run, results, err := eng.Replay(context.Background(), parseMacro(t, fullMacro), sel)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)

	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, core.ResultSucceeded, res.Status)
		assert.Equal(t, 3, res.StepsApplied)
		assert.Empty(t, res.ErrString())
	}

	// Each source channel got a cropped sibling carrying the full history.
	f := mh.ListFiles()[0]
	chans := mh.ListChannels(f)
	require.Len(t, chans, 6)

	var cropped *host.Channel
	for _, ch := range chans {
		if ch.Name == "Topo (Cropped)" {
			cropped = ch
		}
	}
	require.NotNil(t, cropped)
	assert.Equal(t, 50, cropped.Width)
	assert.Equal(t, 10.0, cropped.XOffset)
	assert.Equal(t, 10.0, cropped.YOffset)
	assert.Equal(t, "Gwyddion.net", cropped.Palette)
	require.NotNil(t, cropped.Range)
	assert.Equal(t, core.RangeFixed, cropped.Range.Mode)
	assert.Equal(t, 255.0, cropped.Range.Max)
	require.Len(t, cropped.History, 3)
	assert.Equal(t, "proc::ColorRange(mode=fixed, min=0, max=255)", cropped.History[0])
	assert.Equal(t, "proc::Gradient(name=Gwyddion.net)", cropped.History[2])

	// The source keeps only the steps applied before the redirect.
	var topo *host.Channel
	for _, ch := range chans {
		if ch.Name == "Topo" {
			topo = ch
		}
	}
	require.NotNil(t, topo)
	assert.Equal(t, 100, topo.Width)

	// Recording hit the store.
	require.Len(t, store.runs, 1)
	assert.Equal(t, core.RunStatusCompleted, store.completed[run.ID])
	assert.Len(t, store.results[run.ID], 3)
}

func TestReplayIsolatesChannelFailures(t *testing.T) {
	mh := host.NewMemHost(nil)
	f := mh.AddFile("scan")
	mh.AddChannel(f, "Big1", host.NewGrid(100, 100), host.ChannelMeta{})
	mh.AddChannel(f, "Small", host.NewGrid(20, 20), host.ChannelMeta{})
	mh.AddChannel(f, "Big2", host.NewGrid(100, 100), host.ChannelMeta{})
	sel := selection.SelectAll(mh)

	text := `ColorRange
  mode = full

Crop
  x = 10
  y = 10
  width = 50
  height = 50
`
	eng := New(mh, nil, nil)
	run, results, err := eng.Replay(context.Background(), parseMacro(t, text), sel)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	require.Len(t, results, 3)

	assert.Equal(t, core.ResultSucceeded, results[0].Status)
	assert.Equal(t, 2, results[0].StepsApplied)

	// The small channel fails on the crop, after the range step applied.
	assert.Equal(t, core.ResultFailed, results[1].Status)
	assert.Equal(t, 1, results[1].StepsApplied)
	var verr *core.ValidationError
	require.ErrorAs(t, results[1].Err, &verr)

	// The failure does not touch the later channel.
	assert.Equal(t, core.ResultSucceeded, results[2].Status)
	assert.Equal(t, 2, results[2].StepsApplied)

	chans := mh.ListChannels(f)
	assert.Equal(t, 50, chans[0].Width)
	assert.Equal(t, 20, chans[1].Width)
	require.NotNil(t, chans[1].Range)
	assert.Equal(t, core.RangeFull, chans[1].Range.Mode)
}

func TestReplayRenameFirstWriterWinsAcrossRun(t *testing.T) {
	mh := host.NewMemHost(nil)
	f := mh.AddFile("scan")
	mh.AddChannel(f, "A", host.NewGrid(2, 2), host.ChannelMeta{})
	mh.AddChannel(f, "B", host.NewGrid(2, 2), host.ChannelMeta{})
	sel := selection.SelectAll(mh)

	text := "Rename\n  template = flat\n"
	eng := New(mh, nil, nil)
	_, results, err := eng.Replay(context.Background(), parseMacro(t, text), sel)
	require.NoError(t, err)

	assert.Equal(t, core.ResultSucceeded, results[0].Status)
	assert.Equal(t, core.ResultFailed, results[1].Status)
	var dup *core.DuplicateNameError
	require.ErrorAs(t, results[1].Err, &dup)

	chans := mh.ListChannels(f)
	assert.Equal(t, "flat", chans[0].Name)
	assert.Equal(t, "B", chans[1].Name)
}

func TestReplayIndexedRename(t *testing.T) {
	mh := host.NewMemHost(nil)
	f := mh.AddFile("scan")
	mh.AddChannel(f, "A", host.NewGrid(2, 2), host.ChannelMeta{})
	mh.AddChannel(f, "B", host.NewGrid(2, 2), host.ChannelMeta{})
	sel := selection.SelectAll(mh)

	text := "Rename\n  template = \"ch {index}\"\n"
	eng := New(mh, nil, nil)
	_, results, err := eng.Replay(context.Background(), parseMacro(t, text), sel)
	require.NoError(t, err)
	for _, res := range results {
		assert.Equal(t, core.ResultSucceeded, res.Status)
	}

	chans := mh.ListChannels(f)
	assert.Equal(t, "ch 1", chans[0].Name)
	assert.Equal(t, "ch 2", chans[1].Name)
}

func TestReplayCancellation(t *testing.T) {
	mh, sel := replayFixture(t)
	store := newMemStore()
	eng := New(mh, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, results, err := eng.Replay(ctx, parseMacro(t, fullMacro), sel)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCancelled, run.Status)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, core.ResultSkipped, res.Status)
		assert.Zero(t, res.StepsApplied)
	}
	assert.Equal(t, core.RunStatusCancelled, store.completed[run.ID])
}

func TestReplayEmptyMacro(t *testing.T) {
	mh, sel := replayFixture(t)
	eng := New(mh, nil, nil)

	run, results, err := eng.Replay(context.Background(), &core.Macro{}, sel)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	for _, res := range results {
		assert.Equal(t, core.ResultSucceeded, res.Status)
		assert.Zero(t, res.StepsApplied)
	}
}
