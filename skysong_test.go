package skysong_test

import (
	"math"
	"testing"

	"github.com/lkorpela/skysong"
)

func TestPatternAddClamps(t *testing.T) {
	var p skysong.Pattern
	p.Add(-10, 200, 0, -5)
	p.Add(0, -3, 100, 300)
	want := []skysong.NoteEvent{
		{Pitch: 127, Tick: 0, Length: 1, Velocity: 0},
		{Pitch: 0, Tick: 0, Length: 100, Velocity: 127},
	}
	if len(p.Events) != len(want) {
		t.Fatalf("got %v events, expected %v", len(p.Events), len(want))
	}
	for i, e := range p.Events {
		if e != want[i] {
			t.Errorf("event %v = %v, expected %v", i, e, want[i])
		}
	}
}

func TestTrackStartTicks(t *testing.T) {
	track := skysong.Track{Patterns: []skysong.Pattern{
		{Length: 1920},
		{Length: 960}, // silence is valid; length is authoritative without events
		{Length: 1920},
	}}
	for k, want := range []int{0, 1920, 2880} {
		if got := track.StartTick(k); got != want {
			t.Errorf("StartTick(%v) = %v, expected %v", k, got, want)
		}
	}
	if got := track.LengthTicks(); got != 4800 {
		t.Errorf("LengthTicks() = %v, expected 4800", got)
	}
}

func TestTrackTickMonotonicity(t *testing.T) {
	// every absolute tick of an event in pattern i must be strictly less
	// than the start tick of any later pattern j
	track := skysong.Track{}
	for i := 0; i < 4; i++ {
		p := skysong.Pattern{Length: skysong.BarTicks}
		p.Add(0, 60, 120, 100)
		p.Add(skysong.BarTicks-1, 60, 120, 100)
		track.Patterns = append(track.Patterns, p)
	}
	for i := range track.Patterns {
		for j := i + 1; j < len(track.Patterns); j++ {
			startJ := track.StartTick(j)
			for _, e := range track.Patterns[i].Events {
				if abs := track.StartTick(i) + e.Tick; abs >= startJ {
					t.Fatalf("event at absolute tick %v in pattern %v reaches into pattern %v starting at %v", abs, i, j, startJ)
				}
			}
		}
	}
}

func TestSongLengthIsMaxAcrossTracks(t *testing.T) {
	song := skysong.Song{BPM: 120, TicksPerBeat: 480, Tracks: []skysong.Track{
		{Patterns: []skysong.Pattern{{Length: 1920}}},
		{Patterns: []skysong.Pattern{{Length: 1920}, {Length: 1920}}},
	}}
	if got := song.LengthTicks(); got != 3840 {
		t.Fatalf("LengthTicks() = %v, expected 3840", got)
	}
}

func TestSongDuration(t *testing.T) {
	for _, bpm := range []int{40, 120, 300} {
		for _, ticks := range []int{0, 480, 1920} {
			song := skysong.Song{BPM: bpm, TicksPerBeat: 480, Tracks: []skysong.Track{
				{Patterns: []skysong.Pattern{{Length: ticks}}},
			}}
			want := float64(ticks) / 480 * 60 / float64(bpm)
			if got := song.DurationSeconds(); math.Abs(got-want) > 1e-9 {
				t.Errorf("DurationSeconds() at %v BPM, %v ticks = %v, expected %v", bpm, ticks, got, want)
			}
		}
	}
}

func TestSongValidate(t *testing.T) {
	song := skysong.Song{BPM: 96, TicksPerBeat: 480, Tracks: []skysong.Track{{Channel: 9}}}
	if err := song.Validate(); err != nil {
		t.Fatalf("Validate failed on a valid song: %v", err)
	}
	for _, bad := range []skysong.Song{
		{BPM: 0, TicksPerBeat: 480, Tracks: []skysong.Track{{}}},
		{BPM: 96, TicksPerBeat: 0, Tracks: []skysong.Track{{}}},
		{BPM: 96, TicksPerBeat: 480},
		{BPM: 96, TicksPerBeat: 480, Tracks: []skysong.Track{{Channel: 16}}},
	} {
		if err := bad.Validate(); err == nil {
			t.Errorf("Validate accepted an invalid song: %+v", bad)
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	song := skysong.Song{BPM: 96, TicksPerBeat: 480, Tracks: []skysong.Track{
		{Name: "a", Channel: 9, Program: -1, Patterns: []skysong.Pattern{{Length: 1920, Events: []skysong.NoteEvent{{Pitch: 36, Length: 120, Velocity: 100}}}}},
	}}
	dup := song.Copy()
	dup.Tracks[0].Patterns[0].Events[0].Pitch = 40
	if song.Tracks[0].Patterns[0].Events[0].Pitch != 36 {
		t.Fatal("Copy shares event storage with the original")
	}
}

func TestClamp(t *testing.T) {
	if got := skysong.Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5,0,10) = %v", got)
	}
	if got := skysong.Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1,0,10) = %v", got)
	}
	if got := skysong.Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11,0,10) = %v", got)
	}
}
