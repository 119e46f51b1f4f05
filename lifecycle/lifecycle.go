package lifecycle

import (
	"github.com/maokus/mvmnt/segment"
)

// MinPhaseLength is the smallest usable phase duration in seconds. Callers
// clamp non-zero durations up to it before calling Derive so no phase can
// collapse to a zero-length interval and divide progress by zero.
const MinPhaseLength = 0.01

// Phase is a note segment's animation stage.
type Phase int

const (
	Attack Phase = iota
	Decay
	Sustain
	Release
)

// String returns the phase's display name.
func (p Phase) String() string {
	switch p {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	}
	return "unknown"
}

// Durations configures the phase spans in seconds. Sustain has no duration
// of its own; it fills the gap between decay's end and the window's end.
type Durations struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Release float64 `json:"release"`
}

// State is a derived, ephemeral classification: the phase a segment is in at
// one instant, and how far through it. Progress is in [0, 1) for the timed
// phases and fixed at 1 for sustain.
type State struct {
	Phase    Phase   `json:"phase"`
	Progress float64 `json:"progress"`
}

// Derive classifies a segment at queryTime. It is a pure function: no call
// mutates shared state, and identical arguments always produce identical
// results, which is what keeps the whole visualization scrubbable.
//
// The boundaries, per segment:
//
//	decayStart   = max(note start, window start)   // first visible instant
//	attack       = [decayStart-attack, decayStart) // pre-visibility entrance
//	decay        = [decayStart, min(decayStart+decay, window end))
//	sustain      = [decay end, window end)
//	release      = [window end, window end+release)
//
// Release always starts at the window's end, not the note's own end, so a
// sustained note fades out uniformly at every window seam. The intervals are
// half-open and classified in order, which keeps them disjoint without any
// boundary epsilon.
func Derive(seg segment.Segment, queryTime float64, d Durations) (State, bool) {
	decayStart := seg.Note.Start
	if decayStart < seg.Window.Start {
		decayStart = seg.Window.Start
	}

	attackStart := decayStart - d.Attack
	decayEnd := decayStart + d.Decay
	if decayEnd > seg.Window.End {
		decayEnd = seg.Window.End
	}
	releaseStart := seg.Window.End
	releaseEnd := releaseStart + d.Release

	switch {
	case queryTime >= attackStart && queryTime < decayStart:
		return State{Phase: Attack, Progress: progress(queryTime, attackStart, decayStart)}, true
	case queryTime >= decayStart && queryTime < decayEnd:
		return State{Phase: Decay, Progress: progress(queryTime, decayStart, decayEnd)}, true
	case queryTime >= decayEnd && queryTime < releaseStart:
		return State{Phase: Sustain, Progress: 1}, true
	case queryTime >= releaseStart && queryTime < releaseEnd:
		return State{Phase: Release, Progress: progress(queryTime, releaseStart, releaseEnd)}, true
	}
	return State{}, false
}

func progress(t, start, end float64) float64 {
	if end <= start {
		return 0
	}
	p := (t - start) / (end - start)
	if p < 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return p
}

// Clamp bounds the configured durations for use against a window: non-zero
// durations are floored at MinPhaseLength and capped at the window length,
// so worst-case phase spans stay inside one window.
func (d Durations) Clamp(windowLength float64) Durations {
	return Durations{
		Attack:  clampDuration(d.Attack, windowLength),
		Decay:   clampDuration(d.Decay, windowLength),
		Release: clampDuration(d.Release, windowLength),
	}
}

func clampDuration(v, max float64) float64 {
	if v <= 0 {
		return 0
	}
	if v < MinPhaseLength {
		return MinPhaseLength
	}
	if v > max {
		return max
	}
	return v
}
