package compose

import (
	"errors"
	"math/rand"

	"github.com/lkorpela/skysong"
)

// ErrEmptySeries is returned when the observation series has length zero;
// no song can be assembled from it.
var ErrEmptySeries = errors.New("observation series is empty")

// DrumChannel is the channel reserved for percussive content; it never
// receives a program change.
const DrumChannel = 9

// Config controls how a series is mapped to a song. All fields are clamped
// into their legal ranges by BuildSong, never rejected.
type Config struct {
	BPM           int  // tempo, 40-300
	BarsPerHour   int  // bars generated per observation, 1-16
	Melody        bool // whether to generate the melodic track
	MelodyChannel int  // channel of the melodic track, 0-15
	MelodyProgram int  // program of the melodic track, 0-127
}

// clamped returns a copy of the config with every field limited to its
// legal range.
func (c Config) clamped() Config {
	c.BPM = skysong.Clamp(c.BPM, 40, 300)
	c.BarsPerHour = skysong.Clamp(c.BarsPerHour, 1, 16)
	c.MelodyChannel = skysong.Clamp(c.MelodyChannel, 0, 15)
	c.MelodyProgram = skysong.Clamp(c.MelodyProgram, 0, 127)
	return c
}

// Trace is an optional reporting collaborator invoked at pipeline
// checkpoints. Generation logic never prints; a caller wanting progress
// output supplies a Trace. A nil Trace is valid and silent.
type Trace interface {
	BoundsComputed(bounds skysong.SeriesBounds)
	RecordMapped(index int, obs skysong.Observation)
	SongAssembled(song *skysong.Song)
}

// BuildSong folds the whole observation series into a Song. Normalization
// bounds are computed once over the series; then every record yields
// BarsPerHour rhythm patterns (and melody patterns when enabled), appended
// in record-then-bar order. That nested order is the sequencing contract
// the serializer depends on. The fold is purely sequential.
func BuildSong(series []skysong.Observation, cfg Config, rng *rand.Rand, trace Trace) (*skysong.Song, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	cfg = cfg.clamped()
	bounds := skysong.MeasureBounds(series)
	if trace != nil {
		trace.BoundsComputed(bounds)
	}
	drums := skysong.Track{Name: "Weather Drums", Channel: DrumChannel, Program: -1}
	melody := skysong.Track{Name: "Weather Melody", Channel: cfg.MelodyChannel, Program: cfg.MelodyProgram}
	for i, obs := range series {
		for bar := 0; bar < cfg.BarsPerHour; bar++ {
			rp := RhythmBar(obs, bounds, bar)
			rp.Record = i
			drums.Patterns = append(drums.Patterns, rp)
			if cfg.Melody {
				mp := MelodyBar(obs, bounds, bar, rng)
				mp.Record = i
				melody.Patterns = append(melody.Patterns, mp)
			}
		}
		if trace != nil {
			trace.RecordMapped(i, obs)
		}
	}
	song := &skysong.Song{BPM: cfg.BPM, TicksPerBeat: skysong.TicksPerBeat, Tracks: []skysong.Track{drums}}
	if cfg.Melody {
		song.Tracks = append(song.Tracks, melody)
	}
	if trace != nil {
		trace.SongAssembled(song)
	}
	return song, nil
}
