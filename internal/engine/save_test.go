package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/selection"
	"github.com/scanprobe/spmbatch/internal/testutil"
	"github.com/scanprobe/spmbatch/pkg/core"
)

func saveFixture(t *testing.T) (*host.MemHost, *selection.Model) {
	t.Helper()
	mh := host.NewMemHost(testutil.NewTestLogger(t))
	a := mh.AddFile("scan-a")
	mh.AddChannel(a, "Topo", host.NewGrid(2, 2), host.ChannelMeta{})
	mh.AddChannel(a, "Phase", host.NewGrid(2, 2), host.ChannelMeta{})
	b := mh.AddFile("scan-b")
	mh.AddChannel(b, "Topo", host.NewGrid(2, 2), host.ChannelMeta{})
	return mh, selection.SelectAll(mh)
}

func TestSavePerFile(t *testing.T) {
	mh, sel := saveFixture(t)
	dir := t.TempDir()
	b := NewSaveBatcher(mh, testutil.NewTestLogger(t))

	results := b.Save(sel, SaveOptions{Dir: dir, Mode: core.SavePerFile})
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(dir, "scan-a_processed.json"), results[0].Path)
	assert.Equal(t, 2, results[0].Channels)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dir, "scan-b_processed.json"), results[1].Path)
	require.NoError(t, results[1].Err)

	// The containers are loadable and carry the selected channels.
	loaded, err := mh.OpenContainer(results[0].Path)
	require.NoError(t, err)
	assert.Len(t, mh.ListChannels(loaded), 2)
}

func TestSavePerFileSuffixesExistingOutputs(t *testing.T) {
	mh, sel := saveFixture(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan-a_processed.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan-a_processed_1.json"), []byte("{}"), 0644))

	b := NewSaveBatcher(mh, nil)
	results := b.Save(sel, SaveOptions{Dir: dir, Mode: core.SavePerFile})

	assert.Equal(t, filepath.Join(dir, "scan-a_processed_2.json"), results[0].Path)
	require.NoError(t, results[0].Err)
}

func TestSaveDefaultsColorRange(t *testing.T) {
	mh := host.NewMemHost(nil)
	f := mh.AddFile("scan")
	g := &host.Grid{Width: 2, Height: 1, Samples: []float64{-3, 7}}
	ch := mh.AddChannel(f, "Topo", g, host.ChannelMeta{})
	sel := selection.SelectAll(mh)

	b := NewSaveBatcher(mh, nil)
	results := b.Save(sel, SaveOptions{Dir: t.TempDir(), Mode: core.SavePerFile})
	require.NoError(t, results[0].Err)

	require.NotNil(t, ch.Range)
	assert.Equal(t, core.RangeFull, ch.Range.Mode)
	assert.Equal(t, -3.0, ch.Range.Min)
	assert.Equal(t, 7.0, ch.Range.Max)
}

func TestSaveMergedRenamesCollisions(t *testing.T) {
	mh, sel := saveFixture(t)
	dir := t.TempDir()
	b := NewSaveBatcher(mh, nil)

	results := b.Save(sel, SaveOptions{Dir: dir, Mode: core.SaveMerged, MergedName: "session"})
	require.Len(t, results, 1)
	res := results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, filepath.Join(dir, "session_processed.json"), res.Path)
	assert.Equal(t, 3, res.Channels)

	// Both files contribute a "Topo"; the later one is suffixed.
	require.Len(t, res.Renamed, 1)
	assert.Equal(t, "Topo -> Topo (2)", res.Renamed[0])

	// The rename applied to the container, not the live channel.
	bFile := mh.ListFiles()[1]
	assert.Equal(t, "Topo", mh.ListChannels(bFile)[0].Name)

	loaded, err := mh.OpenContainer(res.Path)
	require.NoError(t, err)
	names := []string{}
	for _, ch := range mh.ListChannels(loaded) {
		names = append(names, ch.Name)
	}
	assert.Equal(t, []string{"Topo", "Phase", "Topo (2)"}, names)
}

func TestSaveIsolatesTargetFailures(t *testing.T) {
	mh, sel := saveFixture(t)
	dir := t.TempDir()

	// A regular file in the directory position makes every write fail.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))

	b := NewSaveBatcher(mh, nil)
	results := b.Save(sel, SaveOptions{Dir: filepath.Join(blocked, "sub"), Mode: core.SavePerFile})
	require.Len(t, results, 2)
	for _, res := range results {
		var ioErr *core.IOError
		require.ErrorAs(t, res.Err, &ioErr)
	}
}
