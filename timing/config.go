package timing

import (
	"fmt"
)

// Config is the plain value object exchanged with external persistence and
// UI layers. BPM and MicrosPerQuarter describe the same scalar tempo; when
// both are set, MicrosPerQuarter wins.
type Config struct {
	BPM              float64       `json:"bpm"`
	BeatsPerBar      int           `json:"beatsPerBar"`
	TimeSignature    TimeSignature `json:"timeSignature"`
	TicksPerQuarter  int           `json:"ticksPerQuarter"`
	MicrosPerQuarter float64       `json:"microsecondsPerQuarter"`
	TempoMap         []TempoChange `json:"tempoMap,omitempty"`
	TempoMapUnit     MapUnit       `json:"tempoMapUnit,omitempty"`
}

// Config returns a snapshot of the current configuration.
func (a *Authority) Config() Config {
	return Config{
		BPM:              a.BPM(),
		BeatsPerBar:      a.sig.Numerator,
		TimeSignature:    a.sig,
		TicksPerQuarter:  a.ticksPerQuarter,
		MicrosPerQuarter: a.microsPerQuarter,
		TempoMap:         a.TempoMap(),
		TempoMapUnit:     a.mapUnit,
	}
}

// ApplyConfig applies a configuration snapshot through the validating
// setters, stopping at the first rejected field.
func (a *Authority) ApplyConfig(c Config) error {
	if c.TicksPerQuarter != 0 {
		if err := a.SetTicksPerQuarter(c.TicksPerQuarter); err != nil {
			return err
		}
	}
	sig := c.TimeSignature
	if sig == (TimeSignature{}) && c.BeatsPerBar != 0 {
		sig = TimeSignature{Numerator: c.BeatsPerBar, Denominator: 4}
	}
	if sig != (TimeSignature{}) {
		if err := a.SetTimeSignature(sig); err != nil {
			return err
		}
	}
	switch {
	case c.MicrosPerQuarter != 0:
		if err := a.SetTempo(c.MicrosPerQuarter); err != nil {
			return err
		}
	case c.BPM != 0:
		if err := a.SetBPM(c.BPM); err != nil {
			return err
		}
	}
	if len(c.TempoMap) > 0 {
		return a.SetTempoMap(c.TempoMap, c.TempoMapUnit)
	}
	a.ClearTempoMap()
	return nil
}

// Param names one settable configuration field. The closed enumeration
// replaces string property paths: a UI binds to a Param value and the
// dispatch below routes it to the matching typed setter.
type Param int

const (
	ParamBPM Param = iota
	ParamMicrosPerQuarter
	ParamBeatsPerBar
	ParamTicksPerQuarter
	ParamNumerator
	ParamDenominator
)

// String returns the parameter's stable external name.
func (p Param) String() string {
	switch p {
	case ParamBPM:
		return "bpm"
	case ParamMicrosPerQuarter:
		return "microsecondsPerQuarter"
	case ParamBeatsPerBar:
		return "beatsPerBar"
	case ParamTicksPerQuarter:
		return "ticksPerQuarter"
	case ParamNumerator:
		return "timeSignature.numerator"
	case ParamDenominator:
		return "timeSignature.denominator"
	}
	return fmt.Sprintf("param(%d)", int(p))
}

// SetParam applies a numeric value to the named parameter.
func (a *Authority) SetParam(p Param, v float64) error {
	switch p {
	case ParamBPM:
		return a.SetBPM(v)
	case ParamMicrosPerQuarter:
		return a.SetTempo(v)
	case ParamBeatsPerBar:
		return a.SetBeatsPerBar(int(v))
	case ParamTicksPerQuarter:
		return a.SetTicksPerQuarter(int(v))
	case ParamNumerator:
		return a.SetTimeSignature(TimeSignature{Numerator: int(v), Denominator: a.sig.Denominator})
	case ParamDenominator:
		return a.SetTimeSignature(TimeSignature{Numerator: a.sig.Numerator, Denominator: int(v)})
	}
	return fmt.Errorf("%w: unknown parameter %d", ErrInvalidConfiguration, int(p))
}
