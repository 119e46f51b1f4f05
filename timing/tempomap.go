package timing

import (
	"fmt"
	"sort"
)

// MapUnit selects how TempoChange.At positions are interpreted.
type MapUnit int

const (
	// MapUnitSeconds keys tempo changes by wall-clock seconds.
	MapUnitSeconds MapUnit = iota
	// MapUnitTicks keys tempo changes by absolute MIDI ticks.
	MapUnitTicks
)

// TempoChange is one entry of a piecewise-constant tempo map. The tempo
// holds from At until the next entry (or forever, for the last one).
type TempoChange struct {
	At               float64 `json:"at"`
	MicrosPerQuarter float64 `json:"microsecondsPerQuarter"`
}

// anchor is a normalized tempo map entry: each segment knows where it starts
// in both seconds and beats, so conversions in either direction are a binary
// search plus one linear term.
type anchor struct {
	startSeconds     float64
	startBeats       float64
	microsPerQuarter float64
}

// SetTempoMap installs a piecewise-constant tempo map that supersedes the
// scalar tempo for all conversions. Entries must be non-empty, strictly
// increasing in At and carry positive tempos; otherwise ErrInvalidTempoMap
// is returned and the previous tempo source stays in effect.
func (a *Authority) SetTempoMap(entries []TempoChange, unit MapUnit) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidTempoMap)
	}
	for i, e := range entries {
		if e.MicrosPerQuarter <= 0 {
			return fmt.Errorf("%w: entry %d has non-positive tempo %v", ErrInvalidTempoMap, i, e.MicrosPerQuarter)
		}
		if i > 0 && e.At <= entries[i-1].At {
			return fmt.Errorf("%w: entries not strictly increasing at index %d", ErrInvalidTempoMap, i)
		}
	}
	a.tempoMap = append([]TempoChange(nil), entries...)
	a.mapUnit = unit
	a.bump()
	return nil
}

// ClearTempoMap removes the tempo map so conversions fall back to the
// scalar tempo.
func (a *Authority) ClearTempoMap() {
	if a.tempoMap == nil {
		return
	}
	a.tempoMap = nil
	a.bump()
}

// TempoMap returns a copy of the installed tempo map, or nil.
func (a *Authority) TempoMap() []TempoChange {
	if a.tempoMap == nil {
		return nil
	}
	return append([]TempoChange(nil), a.tempoMap...)
}

// buildAnchors normalizes the tempo map into (seconds, beats, tempo)
// anchors. When the first entry starts after position zero, an implicit
// anchor at zero carries the scalar tempo so every instant has a defined
// tempo segment.
func (a *Authority) buildAnchors() []anchor {
	if len(a.tempoMap) == 0 {
		return nil
	}
	anchors := make([]anchor, 0, len(a.tempoMap)+1)
	if a.tempoMap[0].At > 0 {
		anchors = append(anchors, anchor{microsPerQuarter: a.microsPerQuarter})
	}
	switch a.mapUnit {
	case MapUnitTicks:
		tpq := float64(a.ticksPerQuarter)
		for _, e := range a.tempoMap {
			beats := e.At / tpq
			var secs float64
			if n := len(anchors); n > 0 {
				prev := anchors[n-1]
				secs = prev.startSeconds + (beats-prev.startBeats)*(prev.microsPerQuarter/1e6)
			}
			anchors = append(anchors, anchor{
				startSeconds:     secs,
				startBeats:       beats,
				microsPerQuarter: e.MicrosPerQuarter,
			})
		}
	default: // MapUnitSeconds
		for _, e := range a.tempoMap {
			var beats float64
			if n := len(anchors); n > 0 {
				prev := anchors[n-1]
				beats = prev.startBeats + (e.At-prev.startSeconds)/(prev.microsPerQuarter/1e6)
			}
			anchors = append(anchors, anchor{
				startSeconds:     e.At,
				startBeats:       beats,
				microsPerQuarter: e.MicrosPerQuarter,
			})
		}
	}
	return anchors
}

// anchorForBeats returns the tempo segment containing the given beat
// position. Positions before the first anchor extrapolate with its tempo.
func (a *Authority) anchorForBeats(beats float64) anchor {
	i := sort.Search(len(a.anchors), func(i int) bool {
		return a.anchors[i].startBeats > beats
	})
	if i == 0 {
		return a.anchors[0]
	}
	return a.anchors[i-1]
}

// anchorForSeconds returns the tempo segment containing the given instant.
func (a *Authority) anchorForSeconds(secs float64) anchor {
	i := sort.Search(len(a.anchors), func(i int) bool {
		return a.anchors[i].startSeconds > secs
	})
	if i == 0 {
		return a.anchors[0]
	}
	return a.anchors[i-1]
}

// BeatsToSeconds converts a beat position to seconds, integrating the tempo
// map when one is installed.
func (a *Authority) BeatsToSeconds(beats float64) float64 {
	if len(a.anchors) == 0 {
		return beats * a.secondsPerBeat
	}
	an := a.anchorForBeats(beats)
	return an.startSeconds + (beats-an.startBeats)*(an.microsPerQuarter/1e6)
}

// SecondsToBeats converts an instant in seconds to a beat position.
func (a *Authority) SecondsToBeats(secs float64) float64 {
	if len(a.anchors) == 0 {
		return secs / a.secondsPerBeat
	}
	an := a.anchorForSeconds(secs)
	return an.startBeats + (secs-an.startSeconds)/(an.microsPerQuarter/1e6)
}

// TicksToSeconds converts an absolute tick position to seconds.
func (a *Authority) TicksToSeconds(ticks float64) float64 {
	return a.BeatsToSeconds(ticks / float64(a.ticksPerQuarter))
}

// SecondsToTicks converts an instant in seconds to an absolute tick position.
func (a *Authority) SecondsToTicks(secs float64) float64 {
	return a.SecondsToBeats(secs) * float64(a.ticksPerQuarter)
}
