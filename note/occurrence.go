package note

import (
	"github.com/maokus/mvmnt/timing"
)

// Occurrence is one sounded note. Instances are created once when a source
// is loaded and never mutated; tempo changes are applied by deriving new
// instances from the original tick positions, not by editing these.
type Occurrence struct {
	Pitch    uint8   `json:"pitch"`
	Channel  uint8   `json:"channel"`
	Velocity uint8   `json:"velocity"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`

	// Original tick positions, when the source had them. They allow
	// tempo-map-consistent re-timing via Retime.
	StartTick int64 `json:"startTick,omitempty"`
	EndTick   int64 `json:"endTick,omitempty"`
	HasTicks  bool  `json:"-"`
}

// New builds an occurrence from second positions. An end before the start is
// clamped to a zero-length note rather than rejected; malformed note data is
// tolerated, only malformed configuration is refused.
func New(pitch, channel, velocity uint8, start, end float64) Occurrence {
	if end < start {
		end = start
	}
	return Occurrence{
		Pitch:    pitch,
		Channel:  channel,
		Velocity: velocity,
		Start:    start,
		End:      end,
	}
}

// Duration returns the note length in seconds.
func (o Occurrence) Duration() float64 {
	return o.End - o.Start
}

// Retime returns a new slice with second positions re-derived from the
// original ticks through the authority's current tempo configuration. Notes
// without tick positions are carried over unchanged.
func Retime(notes []Occurrence, auth *timing.Authority) []Occurrence {
	out := make([]Occurrence, len(notes))
	for i, n := range notes {
		if n.HasTicks {
			n.Start = auth.TicksToSeconds(float64(n.StartTick))
			n.End = auth.TicksToSeconds(float64(n.EndTick))
			if n.End < n.Start {
				n.End = n.Start
			}
		}
		out[i] = n
	}
	return out
}
