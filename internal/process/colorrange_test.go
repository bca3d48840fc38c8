package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanprobe/spmbatch/internal/host"
	"github.com/scanprobe/spmbatch/internal/testutil"
	"github.com/scanprobe/spmbatch/pkg/core"
)

func channelWithData(t *testing.T, samples []float64, w, h int) (*host.MemHost, *host.Channel) {
	t.Helper()
	mh := host.NewMemHost(testutil.NewTestLogger(t))
	f := mh.AddFile("scan")
	g := &host.Grid{Width: w, Height: h, Samples: samples}
	ch := mh.AddChannel(f, "Topo", g, host.ChannelMeta{})
	return mh, ch
}

func TestApplyFixedRange(t *testing.T) {
	mh, ch := channelWithData(t, []float64{1, 2, 3, 4}, 2, 2)
	c := NewColorRangeComputer(testutil.NewTestLogger(t))

	cr, err := c.Apply(mh, ch, RangeParams{Mode: core.RangeFixed, Min: 0, Max: 255})
	require.NoError(t, err)
	assert.Equal(t, core.RangeFixed, cr.Mode)
	assert.Equal(t, 0.0, cr.Min)
	assert.Equal(t, 255.0, cr.Max)
	assert.Same(t, cr, ch.Range)
}

func TestApplyFixedRangeRejectsMinAboveMax(t *testing.T) {
	mh, ch := channelWithData(t, []float64{1, 2, 3, 4}, 2, 2)
	c := NewColorRangeComputer(nil)

	_, err := c.Apply(mh, ch, RangeParams{Mode: core.RangeFixed, Min: 10, Max: 5})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, ch.Range)
}

func TestApplyFullRange(t *testing.T) {
	mh, ch := channelWithData(t, []float64{-2, 0, 7, 3}, 2, 2)
	c := NewColorRangeComputer(nil)

	cr, err := c.Apply(mh, ch, RangeParams{Mode: core.RangeFull})
	require.NoError(t, err)
	assert.Equal(t, -2.0, cr.Min)
	assert.Equal(t, 7.0, cr.Max)
}

func TestApplyZeroToMin(t *testing.T) {
	t.Run("non-negative data pins min to zero", func(t *testing.T) {
		mh, ch := channelWithData(t, []float64{3, 5, 9, 4}, 2, 2)
		c := NewColorRangeComputer(nil)

		cr, err := c.Apply(mh, ch, RangeParams{Mode: core.RangeZeroToMin})
		require.NoError(t, err)
		assert.Equal(t, 0.0, cr.Min)
		assert.Equal(t, 9.0, cr.Max)
	})

	t.Run("negative minimum is never lifted", func(t *testing.T) {
		mh, ch := channelWithData(t, []float64{-4, 5, 9, 4}, 2, 2)
		c := NewColorRangeComputer(nil)

		cr, err := c.Apply(mh, ch, RangeParams{Mode: core.RangeZeroToMin})
		require.NoError(t, err)
		assert.Equal(t, -4.0, cr.Min)
	})
}

func TestApplyUnknownMode(t *testing.T) {
	mh, ch := channelWithData(t, []float64{1}, 1, 1)
	c := NewColorRangeComputer(nil)

	_, err := c.Apply(mh, ch, RangeParams{Mode: "adaptive"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestInvertTogglesWithoutDataChange(t *testing.T) {
	mh, ch := channelWithData(t, []float64{1, 2, 3, 4}, 2, 2)
	c := NewColorRangeComputer(nil)

	_, err := c.Apply(mh, ch, RangeParams{Mode: core.RangeFixed, Min: 0, Max: 10, Invert: true})
	require.NoError(t, err)
	assert.True(t, ch.Range.Inverted)
	assert.Equal(t, 0.0, ch.Range.Min)

	// Bare invert keeps mode and bounds, flips the flag back.
	cr, err := c.Apply(mh, ch, RangeParams{Invert: true})
	require.NoError(t, err)
	assert.False(t, cr.Inverted)
	assert.Equal(t, core.RangeFixed, cr.Mode)
	assert.Equal(t, 10.0, cr.Max)

	g, err := mh.Data(ch)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, g.Samples)
}
