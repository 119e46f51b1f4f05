package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarTickSecondRoundTrip(t *testing.T) {
	t.Parallel()

	a := NewAuthority()
	require.NoError(t, a.SetTicksPerQuarter(960))

	for _, ticks := range []float64{0, 1, 480, 960, 12345, 1e7} {
		secs := a.TicksToSeconds(ticks)
		assert.InDelta(t, ticks, a.SecondsToTicks(secs), 1e-6)
	}

	// 960 ticks at 120 BPM is one beat, half a second
	assert.InDelta(t, 0.5, a.TicksToSeconds(960), 1e-9)
}

func TestSetTempoMapValidation(t *testing.T) {
	t.Parallel()

	a := NewAuthority()

	assert.ErrorIs(t, a.SetTempoMap(nil, MapUnitSeconds), ErrInvalidTempoMap)
	assert.ErrorIs(t, a.SetTempoMap([]TempoChange{
		{At: 2, MicrosPerQuarter: 500000},
		{At: 1, MicrosPerQuarter: 400000},
	}, MapUnitSeconds), ErrInvalidTempoMap)
	assert.ErrorIs(t, a.SetTempoMap([]TempoChange{
		{At: 0, MicrosPerQuarter: 500000},
		{At: 0, MicrosPerQuarter: 400000},
	}, MapUnitSeconds), ErrInvalidTempoMap)
	assert.ErrorIs(t, a.SetTempoMap([]TempoChange{
		{At: 0, MicrosPerQuarter: 0},
	}, MapUnitSeconds), ErrInvalidTempoMap)

	// rejected maps left the scalar tempo in charge
	assert.Nil(t, a.TempoMap())
	assert.InDelta(t, 1.0, a.BeatsToSeconds(2), 1e-9)
}

func TestSecondsKeyedTempoMap(t *testing.T) {
	t.Parallel()

	// 120 BPM for the first two seconds, 240 BPM afterwards
	a := NewAuthority()
	require.NoError(t, a.SetTempoMap([]TempoChange{
		{At: 0, MicrosPerQuarter: 500000},
		{At: 2.0, MicrosPerQuarter: 250000},
	}, MapUnitSeconds))

	assert.InDelta(t, 2.0, a.BeatsToSeconds(4), 1e-9)
	assert.InDelta(t, 3.0, a.BeatsToSeconds(8), 1e-9) // 4 fast beats in 1s
	assert.InDelta(t, 8.0, a.SecondsToBeats(3.0), 1e-9)
	assert.InDelta(t, 2.0, a.SecondsToBeats(1.0), 1e-9)
}

func TestTickKeyedTempoMap(t *testing.T) {
	t.Parallel()

	a := NewAuthority()
	require.NoError(t, a.SetTicksPerQuarter(480))
	require.NoError(t, a.SetTempoMap([]TempoChange{
		{At: 0, MicrosPerQuarter: 500000},
		{At: 1920, MicrosPerQuarter: 250000}, // tempo doubles after beat 4
	}, MapUnitTicks))

	assert.InDelta(t, 2.0, a.TicksToSeconds(1920), 1e-9)
	assert.InDelta(t, 3.0, a.TicksToSeconds(3840), 1e-9)
	assert.InDelta(t, 3840, a.SecondsToTicks(3.0), 1e-6)
}

func TestTempoMapImplicitZeroAnchor(t *testing.T) {
	t.Parallel()

	// map starts at 2s; before that the scalar tempo (120 BPM) applies
	a := NewAuthority()
	require.NoError(t, a.SetTempoMap([]TempoChange{
		{At: 2.0, MicrosPerQuarter: 250000},
	}, MapUnitSeconds))

	assert.InDelta(t, 1.0, a.BeatsToSeconds(2), 1e-9)
	assert.InDelta(t, 2.25, a.BeatsToSeconds(5), 1e-9)
}

func TestTempoMapRoundTrip(t *testing.T) {
	t.Parallel()

	a := NewAuthority()
	require.NoError(t, a.SetTempoMap([]TempoChange{
		{At: 0, MicrosPerQuarter: 600000},
		{At: 1.5, MicrosPerQuarter: 300000},
		{At: 4.0, MicrosPerQuarter: 450000},
	}, MapUnitSeconds))

	for _, secs := range []float64{0, 0.3, 1.5, 2.0, 3.99, 4.0, 10, 100} {
		assert.InDelta(t, secs, a.BeatsToSeconds(a.SecondsToBeats(secs)), 1e-9)
	}
}

func TestClearTempoMap(t *testing.T) {
	t.Parallel()

	a := NewAuthority()
	require.NoError(t, a.SetTempoMap([]TempoChange{
		{At: 0, MicrosPerQuarter: 250000},
	}, MapUnitSeconds))
	gen := a.Generation()

	a.ClearTempoMap()
	assert.Nil(t, a.TempoMap())
	assert.Equal(t, gen+1, a.Generation())
	assert.InDelta(t, 1.0, a.BeatsToSeconds(2), 1e-9) // scalar 120 BPM again

	a.ClearTempoMap() // no-op
	assert.Equal(t, gen+1, a.Generation())
}
