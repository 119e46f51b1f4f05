package directive

import (
	"github.com/fogleman/ease"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/maokus/mvmnt/lifecycle"
	"github.com/maokus/mvmnt/segment"
	"github.com/maokus/mvmnt/utils"
)

// Layout supplies the pixel-space scaling for geometry computation. The roll
// area starts after the piano gutter and spans RollWidth pixels for one
// window length.
type Layout struct {
	PianoWidth float64 `json:"pianoWidth"`
	RollWidth  float64 `json:"rollWidth"`
	RowHeight  float64 `json:"rowHeight"`
	PitchMin   uint8   `json:"pitchMin"`
	PitchMax   uint8   `json:"pitchMax"`
}

// DefaultLayout is an 88-key roll at customary proportions.
var DefaultLayout = Layout{
	PianoWidth: 120,
	RollWidth:  1160,
	RowHeight:  8,
	PitchMin:   21,
	PitchMax:   108,
}

// Directive is one abstract draw instruction for an external renderer:
// geometry in pixels, an opacity hint in [0, 1], a color and the phase that
// produced it. The engine never draws anything itself.
type Directive struct {
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Opacity float64         `json:"opacity"`
	Color   string          `json:"color"`
	Phase   lifecycle.Phase `json:"phase"`
}

// Builder turns classified segments into directives. It precomputes the
// 16-channel palette; everything else is arithmetic with no side effects.
type Builder struct {
	layout  Layout
	palette [16]colorful.Color
}

// NewBuilder returns a builder for the given layout.
func NewBuilder(layout Layout) *Builder {
	b := &Builder{layout: layout}
	for ch := range b.palette {
		// 16 hues spaced around the HCL wheel, offset so channel 0 lands on
		// a blue rather than a red
		hue := float64(ch)*22.5 + 210
		b.palette[ch] = colorful.Hcl(hue, 0.6, 0.55).Clamped()
	}
	return b
}

// Build computes the draw geometry for one classified segment.
//
// Horizontal placement is always relative to the segment's own window, not
// the window the caller happens to be rendering. A release stub carried over
// a window seam therefore keeps its original scale and slides past the roll's
// right edge instead of being squeezed into the new window's coordinates.
func (b *Builder) Build(seg segment.Segment, st lifecycle.State) Directive {
	l := b.layout
	length := seg.Window.Length()
	if length <= 0 {
		return Directive{Phase: st.Phase}
	}

	x := l.PianoWidth + (seg.DrawStart-seg.Window.Start)/length*l.RollWidth
	width := (seg.DrawEnd - seg.DrawStart) / length * l.RollWidth
	pitch := utils.Clamp(seg.Note.Pitch, l.PitchMin, l.PitchMax)
	y := float64(l.PitchMax-pitch) * l.RowHeight

	return Directive{
		X:       x,
		Y:       y,
		Width:   width,
		Height:  l.RowHeight,
		Opacity: opacity(st),
		Color:   b.color(seg),
		Phase:   st.Phase,
	}
}

// opacity maps phase progress to an opacity hint. Attack is the faint
// pre-visibility preview; decay ramps to full intensity; release fades from
// full to nothing.
func opacity(st lifecycle.State) float64 {
	switch st.Phase {
	case lifecycle.Attack:
		return 0.4 * ease.OutCubic(st.Progress)
	case lifecycle.Decay:
		return utils.Lerp(0.6, 1, ease.OutQuad(st.Progress))
	case lifecycle.Release:
		return utils.Clamp(1-ease.InQuad(st.Progress), 0, 1)
	}
	return 1
}

// color picks the channel hue and darkens it for soft notes.
func (b *Builder) color(seg segment.Segment) string {
	c := b.palette[seg.Note.Channel%16]
	h, s, l := c.Hsl()
	shade := utils.Lerp(0.5, 1, float64(seg.Note.Velocity)/127)
	return colorful.Hsl(h, s, l*shade).Clamped().Hex()
}
