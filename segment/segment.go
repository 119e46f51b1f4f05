package segment

import (
	"errors"

	"github.com/maokus/mvmnt/note"
	"github.com/maokus/mvmnt/timing"
)

// Relation tags which of the three windows around the query time a segment
// belongs to.
type Relation int

const (
	WindowPrevious Relation = iota - 1
	WindowCurrent
	WindowNext
)

// String returns the relation's display name.
func (r Relation) String() string {
	switch r {
	case WindowPrevious:
		return "previous"
	case WindowCurrent:
		return "current"
	case WindowNext:
		return "next"
	}
	return "unknown"
}

// Segment is one note occurrence clamped to one window. DrawStart/DrawEnd
// carry the clamped geometry; Note keeps the original un-clamped timing for
// lifecycle derivation. Carryover marks a note that started before the
// segment's window, i.e. the segment is a continuation rather than the
// note's owning occurrence.
type Segment struct {
	Note      note.Occurrence
	Window    timing.Window
	DrawStart float64
	DrawEnd   float64
	Relation  Relation
	Carryover bool
}

// Build materializes the segments visible in the previous, current and next
// windows around queryTime. Neighbour windows are taken one barsPerWindow
// step away in bar space so the triple stays exact under tempo maps. A
// degenerate window yields no segments and no error; the condition is
// already reported by the timing layer.
func Build(notes []note.Occurrence, auth *timing.Authority, queryTime float64, barsPerWindow int) ([]Segment, error) {
	current, err := auth.WindowAt(queryTime, barsPerWindow)
	if err != nil {
		if errors.Is(err, timing.ErrDegenerateWindow) {
			return nil, nil
		}
		return nil, err
	}

	windows := make([]timing.Window, 0, 3)
	relations := make([]Relation, 0, 3)
	for _, rel := range []Relation{WindowPrevious, WindowCurrent, WindowNext} {
		w := current
		if rel != WindowCurrent {
			w, err = auth.WindowForBar(current.FirstBar+int64(rel)*int64(barsPerWindow), barsPerWindow)
			if err != nil {
				continue
			}
		}
		windows = append(windows, w)
		relations = append(relations, rel)
	}

	var segments []Segment
	for i, w := range windows {
		for _, n := range notes {
			if n.Start >= w.End-timing.Epsilon || n.End <= w.Start+timing.Epsilon {
				continue
			}
			seg := Segment{
				Note:      n,
				Window:    w,
				DrawStart: n.Start,
				DrawEnd:   n.End,
				Relation:  relations[i],
				Carryover: n.Start < w.Start-timing.Epsilon,
			}
			if seg.DrawStart < w.Start {
				seg.DrawStart = w.Start
			}
			if seg.DrawEnd > w.End {
				seg.DrawEnd = w.End
			}
			segments = append(segments, seg)
		}
	}
	return segments, nil
}
