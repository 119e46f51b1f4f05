package note

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/maokus/mvmnt/timing"
)

// testSMF builds a two-track file: a tempo track at 120 BPM doubling to 240
// at tick 960 in 3/4, and two notes on channels 0 and 1.
func testSMF(t *testing.T) *smf.SMF {
	t.Helper()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(480)

	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(3, 4))
	track0.Add(0, smf.MetaTempo(120))
	track0.Add(960, smf.MetaTempo(240))
	track0.Close(0)
	require.NoError(t, sm.Add(track0))

	var track1 smf.Track
	track1.Add(0, midi.NoteOn(0, 60, 100))
	track1.Add(480, midi.NoteOff(0, 60))
	track1.Add(0, midi.NoteOn(1, 64, 80))
	track1.Add(960, midi.NoteOff(1, 64))
	track1.Close(0)
	require.NoError(t, sm.Add(track1))

	// round-trip through the wire format so the parsed SMF behaves exactly
	// like one loaded from disk
	var buf bytes.Buffer
	_, err := sm.WriteTo(&buf)
	require.NoError(t, err)
	parsed, err := smf.ReadFrom(&buf)
	require.NoError(t, err)
	return parsed
}

func TestFromSMFNotes(t *testing.T) {
	t.Parallel()

	src, err := FromSMF(testSMF(t))
	require.NoError(t, err)
	require.Len(t, src.Notes, 2)

	first := src.Notes[0]
	assert.Equal(t, uint8(60), first.Pitch)
	assert.Equal(t, uint8(0), first.Channel)
	assert.Equal(t, uint8(100), first.Velocity)
	assert.InDelta(t, 0.0, first.Start, 1e-6)
	assert.InDelta(t, 0.5, first.End, 1e-6)
	assert.True(t, first.HasTicks)
	assert.Equal(t, int64(0), first.StartTick)
	assert.Equal(t, int64(480), first.EndTick)

	// the second note crosses the tempo change: on at tick 480 (0.5s),
	// off at tick 1440 (one slow beat plus one fast beat later)
	second := src.Notes[1]
	assert.Equal(t, uint8(64), second.Pitch)
	assert.Equal(t, uint8(1), second.Channel)
	assert.InDelta(t, 0.5, second.Start, 1e-6)
	assert.InDelta(t, 1.25, second.End, 1e-6)
}

func TestFromSMFTempoSnapshot(t *testing.T) {
	t.Parallel()

	src, err := FromSMF(testSMF(t))
	require.NoError(t, err)

	assert.Equal(t, 480, src.TicksPerQuarter)
	assert.Equal(t, timing.TimeSignature{Numerator: 3, Denominator: 4}, src.TimeSignature)

	require.Len(t, src.TempoMap, 2)
	assert.Equal(t, 0.0, src.TempoMap[0].At)
	assert.InDelta(t, 500000, src.TempoMap[0].MicrosPerQuarter, 1)
	assert.Equal(t, 960.0, src.TempoMap[1].At)
	assert.InDelta(t, 250000, src.TempoMap[1].MicrosPerQuarter, 1)
}

func TestFromSMFDefaultsWithoutMeta(t *testing.T) {
	t.Parallel()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(960)
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(960, midi.NoteOff(0, 60))
	track.Close(0)
	require.NoError(t, sm.Add(track))

	var buf bytes.Buffer
	_, err := sm.WriteTo(&buf)
	require.NoError(t, err)
	parsed, err := smf.ReadFrom(&buf)
	require.NoError(t, err)

	src, err := FromSMF(parsed)
	require.NoError(t, err)
	assert.Equal(t, 960, src.TicksPerQuarter)
	assert.Equal(t, timing.TimeSignature{Numerator: 4, Denominator: 4}, src.TimeSignature)
	require.NotEmpty(t, src.TempoMap)
	assert.Equal(t, 0.0, src.TempoMap[0].At)
	assert.InDelta(t, 500000, src.TempoMap[0].MicrosPerQuarter, 1)
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.mid")
	require.NoError(t, testSMF(t).WriteFile(path))

	src, err := FromFile(path)
	require.NoError(t, err)
	assert.Len(t, src.Notes, 2)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.mid"))
	assert.Error(t, err)
}

func TestSourceApplyTo(t *testing.T) {
	t.Parallel()

	src, err := FromSMF(testSMF(t))
	require.NoError(t, err)

	auth := timing.NewAuthority()
	require.NoError(t, src.ApplyTo(auth))

	assert.Equal(t, 480, auth.TicksPerQuarter())
	assert.Equal(t, 3, auth.BeatsPerBar())
	assert.InDelta(t, 1.25, auth.TicksToSeconds(1440), 1e-9)
}
