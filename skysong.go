package skysong

import (
	"errors"
	"fmt"
)

// TicksPerBeat is the sequencing resolution: the number of ticks in one
// quarter note. All tick values in the model are interpreted against it.
const TicksPerBeat = 480

// BarTicks is the length of one bar (four beats) in ticks.
const BarTicks = 4 * TicksPerBeat

type (
	// NoteEvent is a single timed sound event inside a Pattern. Tick is the
	// offset from the owning pattern's start, Length the duration in ticks.
	// Pitch and Velocity are MIDI ranged (0-127); they are clamped on
	// insertion, never rejected.
	NoteEvent struct {
		Pitch    int
		Tick     int
		Length   int
		Velocity int
	}

	// Pattern is one bar's worth of events for one musical role. Length is
	// authoritative for sequencing even if no event reaches it; a pattern
	// with no events is a valid silent bar. Record tags the index of the
	// observation the pattern was generated from.
	Pattern struct {
		Events []NoteEvent `yaml:",flow"`
		Length int
		Record int `yaml:",omitempty"`
	}

	// Track is a named, channel-scoped concatenation of patterns. The
	// absolute start tick of pattern k is the sum of the lengths of patterns
	// 0..k-1. Program is the MIDI program number to declare before the first
	// note; -1 means no program change is emitted.
	Track struct {
		Name     string
		Channel  int
		Program  int
		Patterns []Pattern
	}

	// Song is the assembled arrangement: one or more tracks sharing a tempo
	// and a tick resolution.
	Song struct {
		BPM          int
		TicksPerBeat int
		Tracks       []Track
	}
)

// Bar is the capability a serializer needs from a pattern source: its total
// length and its ordered events. Pattern implements it; so can any future
// pattern kind without the serializer changing.
type Bar interface {
	BarLength() int
	BarEvents() []NoteEvent
}

// Add appends an event to the pattern, clamping pitch and velocity to the
// legal 0-127 range. Lengths below 1 tick become 1 tick; negative offsets
// become 0.
func (p *Pattern) Add(tick, pitch, length, velocity int) {
	p.Events = append(p.Events, NoteEvent{
		Pitch:    Clamp(pitch, 0, 127),
		Tick:     max(tick, 0),
		Length:   max(length, 1),
		Velocity: Clamp(velocity, 0, 127),
	})
}

func (p Pattern) BarLength() int { return p.Length }

func (p Pattern) BarEvents() []NoteEvent { return p.Events }

// Copy makes a deep copy of a Pattern.
func (p *Pattern) Copy() Pattern {
	events := make([]NoteEvent, len(p.Events))
	copy(events, p.Events)
	return Pattern{Events: events, Length: p.Length, Record: p.Record}
}

// Copy makes a deep copy of a Track.
func (t *Track) Copy() Track {
	patterns := make([]Pattern, len(t.Patterns))
	for i, oldPat := range t.Patterns {
		patterns[i] = oldPat.Copy()
	}
	return Track{Name: t.Name, Channel: t.Channel, Program: t.Program, Patterns: patterns}
}

// StartTick returns the absolute tick at which pattern k starts on this
// track; the cumulative sum of the preceding pattern lengths.
func (t *Track) StartTick(k int) int {
	ret := 0
	for _, p := range t.Patterns[:k] {
		ret += p.Length
	}
	return ret
}

// LengthTicks returns the total duration of the track in ticks; the sum of
// all its pattern lengths.
func (t *Track) LengthTicks() int {
	return t.StartTick(len(t.Patterns))
}

// Copy makes a deep copy of a Song.
func (s *Song) Copy() Song {
	tracks := make([]Track, len(s.Tracks))
	for i, t := range s.Tracks {
		tracks[i] = t.Copy()
	}
	return Song{BPM: s.BPM, TicksPerBeat: s.TicksPerBeat, Tracks: tracks}
}

// LengthTicks returns the overall length of the song in ticks; the maximum
// track length, as tracks may have different total lengths.
func (s *Song) LengthTicks() int {
	ret := 0
	for _, t := range s.Tracks {
		if l := t.LengthTicks(); l > ret {
			ret = l
		}
	}
	return ret
}

// DurationSeconds converts the song length from ticks to wall-clock seconds
// using the configured tempo.
func (s *Song) DurationSeconds() float64 {
	if s.BPM < 1 || s.TicksPerBeat < 1 {
		return 0
	}
	return float64(s.LengthTicks()) / float64(s.TicksPerBeat) * 60 / float64(s.BPM)
}

// Validate checks if the Song looks like a valid song: BPM > 0, a positive
// tick resolution and one or more tracks with legal channels.
func (s *Song) Validate() error {
	if s.BPM < 1 {
		return errors.New("BPM should be > 0")
	}
	if s.TicksPerBeat < 1 {
		return errors.New("TicksPerBeat should be > 0")
	}
	if len(s.Tracks) == 0 {
		return errors.New("song contains no tracks")
	}
	for i, t := range s.Tracks {
		if t.Channel < 0 || t.Channel > 15 {
			return fmt.Errorf("track %v uses channel %v, outside 0-15", i, t.Channel)
		}
	}
	return nil
}

// Clamp limits value to the range min..max, inclusive.
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
