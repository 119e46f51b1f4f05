package timing

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/maokus/mvmnt/logger"
)

// Window is one fixed-bar-count slice of the timeline. Windows tile the
// timeline from bar zero with no gaps or overlaps; FirstBar records which
// bar the window starts on so neighbours can be computed in bar space.
type Window struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	FirstBar int64   `json:"firstBar"`
}

// Length returns the window length in seconds.
func (w Window) Length() float64 {
	return w.End - w.Start
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t float64) bool {
	return t >= w.Start-Epsilon && t < w.End-Epsilon
}

// BeatPoint is one beat boundary inside a window, for grid rendering.
type BeatPoint struct {
	Time       float64 `json:"time"`
	IsBarStart bool    `json:"isBarStart"`
	Bar        int64   `json:"bar"`
}

// WindowAt returns the window containing the instant t. The window index is
// computed in bar space and converted through the tempo map, so every window
// spans exactly barsPerWindow musical bars even when the tempo changes
// inside it.
func (a *Authority) WindowAt(t float64, barsPerWindow int) (Window, error) {
	if err := a.checkWindowConfig(t, barsPerWindow); err != nil {
		return Window{}, err
	}
	windowBeats := float64(a.sig.Numerator * barsPerWindow)
	idx := math.Floor(a.SecondsToBeats(t) / windowBeats)
	return a.WindowForBar(int64(idx)*int64(barsPerWindow), barsPerWindow)
}

// WindowForBar returns the window starting at the given bar index. Neighbour
// windows are one barsPerWindow step away; stepping in bar space keeps the
// tiling exact under tempo maps, where second-arithmetic would drift.
func (a *Authority) WindowForBar(firstBar int64, barsPerWindow int) (Window, error) {
	if err := a.checkWindowConfig(0, barsPerWindow); err != nil {
		return Window{}, err
	}
	beatsPerBar := int64(a.sig.Numerator)
	start := a.BeatsToSeconds(float64(firstBar * beatsPerBar))
	end := a.BeatsToSeconds(float64((firstBar + int64(barsPerWindow)) * beatsPerBar))
	if !(end > start) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return Window{}, a.degenerate(fmt.Errorf("%w: bar %d spans [%v, %v]", ErrDegenerateWindow, firstBar, start, end))
	}
	return Window{Start: start, End: end, FirstBar: firstBar}, nil
}

func (a *Authority) checkWindowConfig(t float64, barsPerWindow int) error {
	if barsPerWindow < 1 {
		return a.degenerate(fmt.Errorf("%w: barsPerWindow=%d", ErrDegenerateWindow, barsPerWindow))
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return a.degenerate(fmt.Errorf("%w: query time %v", ErrDegenerateWindow, t))
	}
	if length := a.secondsPerBar * float64(barsPerWindow); len(a.anchors) == 0 && (length <= 0 || math.IsInf(length, 0) || math.IsNaN(length)) {
		return a.degenerate(fmt.Errorf("%w: window length %v seconds", ErrDegenerateWindow, length))
	}
	return nil
}

// degenerate logs and passes through a degenerate-window error. The failure
// is fatal for the single call only; configuration is untouched.
func (a *Authority) degenerate(err error) error {
	logger.GetProjectLogger().WithFields(logrus.Fields{
		"bpm":          a.BPM(),
		"beats_per_bar": a.sig.Numerator,
	}).Warnf("degenerate window: %v", err)
	return err
}

// BeatGridIn returns every beat boundary in [start, end), in order. The end
// point is exclusive within Epsilon so a window's closing bar line belongs
// to the next window. Returns nil for an empty or inverted interval.
func (a *Authority) BeatGridIn(start, end float64) []BeatPoint {
	if !(end > start) || a.secondsPerBeat <= 0 {
		return nil
	}
	beatsPerBar := int64(a.sig.Numerator)
	k := int64(math.Ceil(a.SecondsToBeats(start) - Epsilon))
	var grid []BeatPoint
	for {
		t := a.BeatsToSeconds(float64(k))
		if t >= end-Epsilon {
			return grid
		}
		grid = append(grid, BeatPoint{
			Time:       t,
			IsBarStart: floorMod(k, beatsPerBar) == 0,
			Bar:        floorDiv(k, beatsPerBar),
		})
		k++
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
