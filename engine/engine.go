package engine

import (
	"errors"

	"github.com/maokus/mvmnt/directive"
	"github.com/maokus/mvmnt/lifecycle"
	"github.com/maokus/mvmnt/note"
	"github.com/maokus/mvmnt/segment"
	"github.com/maokus/mvmnt/timing"
)

// DefaultDurations is a reasonable phase envelope for a one-bar window.
var DefaultDurations = lifecycle.Durations{Attack: 0.2, Decay: 0.15, Release: 0.3}

// Options configures an engine instance.
type Options struct {
	BarsPerWindow int
	Durations     lifecycle.Durations
	Layout        directive.Layout
}

// Frame is the complete per-frame output: the active window, its beat grid
// and the draw directives for everything visible. Frames are owned by the
// caller and discarded after use; the engine keeps no per-note state.
type Frame struct {
	QueryTime  float64               `json:"queryTime"`
	Window     timing.Window         `json:"window"`
	Grid       []timing.BeatPoint    `json:"grid"`
	Directives []directive.Directive `json:"directives"`
}

// Engine wires one Authority, one note list and one layout into the
// per-frame pipeline. Everything it computes is a pure function of the query
// time and the current configuration, so frames can be built for arbitrary
// times in any order.
type Engine struct {
	auth    *timing.Authority
	notes   []note.Occurrence
	opts    Options
	builder *directive.Builder

	// single-frame memo, a pure optimization: keyed by query time plus the
	// configuration generation and note revision, never observable
	notesRev uint64
	memo     struct {
		valid bool
		t     float64
		gen   uint64
		rev   uint64
		frame Frame
	}
}

// New creates an engine. Zero option fields fall back to one bar per window,
// DefaultDurations and directive.DefaultLayout.
func New(auth *timing.Authority, notes []note.Occurrence, opts Options) *Engine {
	if opts.BarsPerWindow == 0 {
		opts.BarsPerWindow = 1
	}
	if opts.Durations == (lifecycle.Durations{}) {
		opts.Durations = DefaultDurations
	}
	if opts.Layout == (directive.Layout{}) {
		opts.Layout = directive.DefaultLayout
	}
	return &Engine{
		auth:    auth,
		notes:   notes,
		opts:    opts,
		builder: directive.NewBuilder(opts.Layout),
	}
}

// Authority exposes the engine's time authority for configuration.
func (e *Engine) Authority() *timing.Authority {
	return e.auth
}

// SetNotes replaces the note list.
func (e *Engine) SetNotes(notes []note.Occurrence) {
	e.notes = notes
	e.notesRev++
}

// Notes returns the current note list.
func (e *Engine) Notes() []note.Occurrence {
	return e.notes
}

// RetimeFromTicks re-derives note seconds from their original ticks through
// the authority's current tempo configuration. Call it after tempo or tempo
// map changes when the source carried tick positions.
func (e *Engine) RetimeFromTicks() {
	e.notes = note.Retime(e.notes, e.auth)
	e.notesRev++
}

// BuildFrame runs the full pipeline for one query time: active window, beat
// grid, windowed segments, lifecycle classification, draw directives. A
// degenerate window configuration produces a safe empty frame rather than
// an error.
func (e *Engine) BuildFrame(t float64) (Frame, error) {
	if e.memo.valid && e.memo.t == t && e.memo.gen == e.auth.Generation() && e.memo.rev == e.notesRev {
		return e.memo.frame, nil
	}

	window, err := e.auth.WindowAt(t, e.opts.BarsPerWindow)
	if err != nil {
		if errors.Is(err, timing.ErrDegenerateWindow) {
			return Frame{QueryTime: t}, nil
		}
		return Frame{}, err
	}

	segments, err := segment.Build(e.notes, e.auth, t, e.opts.BarsPerWindow)
	if err != nil {
		return Frame{}, err
	}

	frame := Frame{
		QueryTime: t,
		Window:    window,
		Grid:      e.auth.BeatGridIn(window.Start, window.End),
	}
	for _, seg := range segments {
		durations := e.opts.Durations.Clamp(seg.Window.Length())
		state, visible := lifecycle.Derive(seg, t, durations)
		if !visible {
			continue
		}
		frame.Directives = append(frame.Directives, e.builder.Build(seg, state))
	}

	e.memo.valid = true
	e.memo.t = t
	e.memo.gen = e.auth.Generation()
	e.memo.rev = e.notesRev
	e.memo.frame = frame
	return frame, nil
}
