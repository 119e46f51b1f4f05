package timing

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the single boundary tolerance, in seconds, used wherever
// accumulated floating-point arithmetic meets a musical boundary (beat grid
// end points, window membership). Phase classification uses half-open
// intervals and does not need it.
const Epsilon = 1e-9

var (
	// ErrInvalidConfiguration is returned by setters for non-positive tempo,
	// resolution or time signature values. The prior configuration is kept.
	ErrInvalidConfiguration = errors.New("timing: invalid configuration")

	// ErrInvalidTempoMap is returned for empty, unsorted or non-positive
	// tempo map entries. The prior tempo source stays in effect.
	ErrInvalidTempoMap = errors.New("timing: invalid tempo map")

	// ErrDegenerateWindow is returned when a window length computes to a
	// non-positive or non-finite number of seconds.
	ErrDegenerateWindow = errors.New("timing: degenerate window")
)

// TimeSignature holds a musical time signature. The numerator doubles as the
// beats-per-bar count; the denominator is carried for display and export but
// the beat itself is always one quarter-note unit.
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// Authority is the single source of truth for tempo, time signature, tick
// resolution and the optional tempo map. All musical unit conversions and
// window computations go through it.
//
// An Authority is constructed per visualization instance and passed
// explicitly to the segmenter and engine. It is not safe for concurrent
// mutation; the engine is single-threaded by contract.
type Authority struct {
	ticksPerQuarter  int
	microsPerQuarter float64
	sig              TimeSignature

	tempoMap []TempoChange
	mapUnit  MapUnit
	anchors  []anchor

	// derived, recomputed on every accepted configuration change
	secondsPerBeat float64
	secondsPerBar  float64

	generation uint64
}

// NewAuthority returns an Authority with the conventional defaults:
// 480 ticks per quarter, 500000 microseconds per quarter (120 BPM), 4/4.
func NewAuthority() *Authority {
	a := &Authority{
		ticksPerQuarter:  480,
		microsPerQuarter: 500000,
		sig:              TimeSignature{Numerator: 4, Denominator: 4},
	}
	a.recompute()
	return a
}

// recompute refreshes the cached derived values and rebuilds the tempo map
// anchors. Callers bump the generation counter themselves so that no-op
// setters stay invisible to cache consumers.
func (a *Authority) recompute() {
	a.secondsPerBeat = a.microsPerQuarter / 1e6
	a.secondsPerBar = a.secondsPerBeat * float64(a.sig.Numerator)
	a.anchors = a.buildAnchors()
}

func (a *Authority) bump() {
	a.generation++
	a.recompute()
}

// Generation returns a counter incremented on every accepted configuration
// change. Consumers compare it to invalidate memoized derived values instead
// of hashing the configuration.
func (a *Authority) Generation() uint64 {
	return a.generation
}

// SetTempo sets the tempo in microseconds per quarter-note unit.
func (a *Authority) SetTempo(microsPerQuarter float64) error {
	if microsPerQuarter <= 0 || math.IsInf(microsPerQuarter, 0) || math.IsNaN(microsPerQuarter) {
		return fmt.Errorf("%w: microseconds per quarter must be positive, got %v", ErrInvalidConfiguration, microsPerQuarter)
	}
	if microsPerQuarter != a.microsPerQuarter {
		a.microsPerQuarter = microsPerQuarter
		a.bump()
	}
	return nil
}

// SetBPM sets the tempo in beats per minute.
func (a *Authority) SetBPM(bpm float64) error {
	if bpm <= 0 || math.IsInf(bpm, 0) || math.IsNaN(bpm) {
		return fmt.Errorf("%w: bpm must be positive, got %v", ErrInvalidConfiguration, bpm)
	}
	return a.SetTempo(60e6 / bpm)
}

// BPM returns the scalar tempo in beats per minute.
func (a *Authority) BPM() float64 {
	return 60e6 / a.microsPerQuarter
}

// MicrosPerQuarter returns the scalar tempo in microseconds per quarter.
func (a *Authority) MicrosPerQuarter() float64 {
	return a.microsPerQuarter
}

// SetBeatsPerBar sets the time signature numerator.
func (a *Authority) SetBeatsPerBar(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: beats per bar must be >= 1, got %d", ErrInvalidConfiguration, n)
	}
	if n != a.sig.Numerator {
		a.sig.Numerator = n
		a.bump()
	}
	return nil
}

// SetTimeSignature sets the full time signature.
func (a *Authority) SetTimeSignature(sig TimeSignature) error {
	if sig.Numerator < 1 || sig.Denominator < 1 {
		return fmt.Errorf("%w: time signature %d/%d", ErrInvalidConfiguration, sig.Numerator, sig.Denominator)
	}
	if sig != a.sig {
		a.sig = sig
		a.bump()
	}
	return nil
}

// TimeSignature returns the current time signature.
func (a *Authority) TimeSignature() TimeSignature {
	return a.sig
}

// BeatsPerBar returns the time signature numerator.
func (a *Authority) BeatsPerBar() int {
	return a.sig.Numerator
}

// SetTicksPerQuarter sets the tick resolution (PPQ).
func (a *Authority) SetTicksPerQuarter(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: ticks per quarter must be >= 1, got %d", ErrInvalidConfiguration, n)
	}
	if n != a.ticksPerQuarter {
		a.ticksPerQuarter = n
		a.bump()
	}
	return nil
}

// TicksPerQuarter returns the tick resolution (PPQ).
func (a *Authority) TicksPerQuarter() int {
	return a.ticksPerQuarter
}

// SecondsPerBeat returns the scalar seconds-per-beat. Under a tempo map this
// is the fallback tempo outside the map, not the local tempo at any instant.
func (a *Authority) SecondsPerBeat() float64 {
	return a.secondsPerBeat
}

// SecondsPerBar returns the scalar seconds-per-bar.
func (a *Authority) SecondsPerBar() float64 {
	return a.secondsPerBar
}
