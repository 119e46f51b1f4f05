package note

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/maokus/mvmnt/timing"
)

// Source is everything the engine needs from a note-event file: the
// occurrences plus a tempo/time-signature snapshot for the Authority.
type Source struct {
	Notes           []Occurrence
	TempoMap        []timing.TempoChange
	TicksPerQuarter int
	TimeSignature   timing.TimeSignature
}

// ApplyTo installs the source's tempo snapshot on an authority.
func (s Source) ApplyTo(auth *timing.Authority) error {
	if err := auth.SetTicksPerQuarter(s.TicksPerQuarter); err != nil {
		return err
	}
	if err := auth.SetTimeSignature(s.TimeSignature); err != nil {
		return err
	}
	return auth.SetTempoMap(s.TempoMap, timing.MapUnitTicks)
}

// FromFile reads a standard MIDI file into a Source.
func FromFile(filepath string) (Source, error) {
	s, err := readSMF(filepath)
	if err != nil {
		return Source{}, err
	}
	return FromSMF(s)
}

// readSMF reads and parses a MIDI file. The reader can panic on truncated
// input, so the panic is converted into an error here.
// https://github.com/gomidi/midi/issues/20
func readSMF(filepath string) (s *smf.SMF, e error) {
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading midi file: %w", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("error parsing midi file: %w", err)
	}
	return res, nil
}

// FromSMF extracts note occurrences and the tempo snapshot from a parsed
// MIDI file.
func FromSMF(s *smf.SMF) (Source, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return Source{}, fmt.Errorf("unsupported SMF time format %v", s.TimeFormat)
	}
	src := Source{
		Notes:           notesFromSMF(s),
		TempoMap:        tempoMapFromSMF(s),
		TicksPerQuarter: int(mt),
		TimeSignature:   timeSignatureFromSMF(s),
	}
	return src, nil
}

// notesFromSMF pairs note-on/note-off events per (channel, pitch) across all
// tracks, in absolute-tick order. A note-on with velocity zero counts as a
// note-off. Notes still sounding at the end of a track are closed at the
// track's last event.
func notesFromSMF(s *smf.SMF) []Occurrence {
	var notes []Occurrence
	for _, events := range s.Tracks {
		type open struct {
			tick     int64
			velocity uint8
		}
		pending := make(map[[2]uint8]open)
		var absTicks, lastTick int64

		for _, event := range events {
			absTicks += int64(event.Delta)
			if absTicks > lastTick {
				lastTick = absTicks
			}
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				pending[[2]uint8{channel, key}] = open{tick: absTicks, velocity: velocity}
			case event.Message.GetNoteOff(&channel, &key, &velocity),
				event.Message.GetNoteOn(&channel, &key, &velocity):
				id := [2]uint8{channel, key}
				on, ok := pending[id]
				if !ok {
					continue
				}
				delete(pending, id)
				notes = append(notes, occurrenceAt(s, key, channel, on.velocity, on.tick, absTicks))
			}
		}

		// close any hanging notes at the end of the track
		for id, on := range pending {
			notes = append(notes, occurrenceAt(s, id[1], id[0], on.velocity, on.tick, lastTick))
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Start != notes[j].Start {
			return notes[i].Start < notes[j].Start
		}
		return notes[i].Pitch < notes[j].Pitch
	})
	return notes
}

func occurrenceAt(s *smf.SMF, pitch, channel, velocity uint8, onTick, offTick int64) Occurrence {
	o := New(pitch, channel, velocity,
		float64(s.TimeAt(onTick))/1e6,
		float64(s.TimeAt(offTick))/1e6)
	o.StartTick = onTick
	o.EndTick = offTick
	o.HasTicks = true
	return o
}

// tempoMapFromSMF collects tempo meta events across all tracks into a
// tick-keyed map. When a file carries none, or the first change sits after
// tick zero, the conventional 500000 µs/quarter default fills the gap.
func tempoMapFromSMF(s *smf.SMF) []timing.TempoChange {
	var changes []timing.TempoChange
	for _, events := range s.Tracks {
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			var bpm float64
			if event.Message.GetMetaTempo(&bpm) && bpm > 0 {
				changes = append(changes, timing.TempoChange{
					At:               float64(absTicks),
					MicrosPerQuarter: 60e6 / bpm,
				})
			}
		}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].At < changes[j].At
	})
	// keep the last change at any given tick
	dedup := changes[:0]
	for i, c := range changes {
		if i+1 < len(changes) && changes[i+1].At == c.At {
			continue
		}
		dedup = append(dedup, c)
	}
	changes = dedup
	if len(changes) == 0 || changes[0].At > 0 {
		changes = append([]timing.TempoChange{{At: 0, MicrosPerQuarter: 500000}}, changes...)
	}
	return changes
}

// timeSignatureFromSMF returns the file's first time signature, or 4/4.
func timeSignatureFromSMF(s *smf.SMF) timing.TimeSignature {
	for _, events := range s.Tracks {
		for _, event := range events {
			var num, denom, cpt, dsqpq uint8
			if event.Message.GetMetaTimeSig(&num, &denom, &cpt, &dsqpq) && num > 0 && denom > 0 {
				return timing.TimeSignature{Numerator: int(num), Denominator: int(denom)}
			}
		}
	}
	return timing.TimeSignature{Numerator: 4, Denominator: 4}
}
