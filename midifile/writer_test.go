package midifile_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/lkorpela/skysong"
	"github.com/lkorpela/skysong/midifile"
)

func testSong() *skysong.Song {
	var drumBar skysong.Pattern
	drumBar.Length = skysong.BarTicks
	drumBar.Add(0, 36, 120, 100)
	drumBar.Add(960, 36, 120, 100)
	drumBar.Add(480, 38, 120, 105)
	drumBar.Add(1440, 38, 120, 105)
	var melodyBar skysong.Pattern
	melodyBar.Length = skysong.BarTicks
	melodyBar.Add(0, 60, 960, 80)
	melodyBar.Add(0, 67, 960, 80)
	melodyBar.Add(960, 64, 480, 90)
	return &skysong.Song{
		BPM:          96,
		TicksPerBeat: 480,
		Tracks: []skysong.Track{
			{Name: "Weather Drums", Channel: 9, Program: -1, Patterns: []skysong.Pattern{drumBar, drumBar}},
			{Name: "Weather Melody", Channel: 3, Program: 42, Patterns: []skysong.Pattern{melodyBar, melodyBar}},
		},
	}
}

func TestWriteNoTracks(t *testing.T) {
	_, err := midifile.Write(&skysong.Song{BPM: 120, TicksPerBeat: 480})
	if !errors.Is(err, midifile.ErrNoTracks) {
		t.Fatalf("expected ErrNoTracks, got %v", err)
	}
}

func TestWriteFileNoTracksLeavesNoArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mid")
	err := midifile.WriteFile(path, &skysong.Song{BPM: 120, TicksPerBeat: 480})
	if !errors.Is(err, midifile.ErrNoTracks) {
		t.Fatalf("expected ErrNoTracks, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("an output file was produced for a failed serialization")
	}
}

func TestWriteHeader(t *testing.T) {
	data, err := midifile.Write(testSong())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := []byte{
		'M', 'T', 'h', 'd',
		0, 0, 0, 6, // header length
		0, 1, // format 1
		0, 2, // two tracks
		0x01, 0xE0, // 480 ticks per beat
	}
	if !bytes.Equal(data[:14], want) {
		t.Fatalf("header = % X, expected % X", data[:14], want)
	}
}

func TestWriteRunningStatus(t *testing.T) {
	// two notes starting close together on the same channel: the second
	// note-on must reuse the running status byte
	var p skysong.Pattern
	p.Length = skysong.BarTicks
	p.Add(0, 60, 100, 80)
	p.Add(10, 64, 100, 80)
	song := &skysong.Song{BPM: 120, TicksPerBeat: 480, Tracks: []skysong.Track{
		{Name: "t", Channel: 3, Program: -1, Patterns: []skysong.Pattern{p}},
	}}
	data, err := midifile.Write(song)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	body := data[14+8:] // header chunk, then MTrk + length
	if n := binary.BigEndian.Uint32(data[14+4 : 14+8]); int(n) != len(body) {
		t.Fatalf("track length %v does not match body length %v", n, len(body))
	}
	if got := bytes.Count(body, []byte{0x93}); got != 1 {
		t.Errorf("note-on status byte appears %v times, expected 1 via running status", got)
	}
	if got := bytes.Count(body, []byte{0x83}); got != 1 {
		t.Errorf("note-off status byte appears %v times, expected 1 via running status", got)
	}
}

func TestRoundTrip(t *testing.T) {
	song := testSong()
	path := filepath.Join(t.TempDir(), "out.mid")
	if err := midifile.WriteFile(path, song); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	rd, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("output did not parse as a standard MIDI file: %v", err)
	}
	if len(rd.Tracks) != 2 {
		t.Fatalf("got %v tracks, expected 2", len(rd.Tracks))
	}
	if rd.TimeFormat != smf.MetricTicks(480) {
		t.Fatalf("time format %v, expected 480 metric ticks", rd.TimeFormat)
	}
	tempos := rd.TempoChanges()
	if len(tempos) != 1 {
		t.Fatalf("got %v tempo changes, expected exactly one on the first track", len(tempos))
	}
	if tempos[0].BPM != 96 {
		t.Fatalf("tempo %v BPM, expected 96", tempos[0].BPM)
	}
	for i, want := range []string{"Weather Drums", "Weather Melody"} {
		found := false
		for _, ev := range rd.Tracks[i] {
			var name string
			if ev.Message.GetMetaTrackName(&name) {
				if name != want {
					t.Errorf("track %v named %q, expected %q", i, name, want)
				}
				found = true
			}
		}
		if !found {
			t.Errorf("track %v carries no name meta event", i)
		}
	}
	// the drum channel never gets a program change; the melody channel
	// gets exactly one, before its first note
	for i, wantPrograms := range []int{0, 1} {
		programs := 0
		notesSeen := false
		for _, ev := range rd.Tracks[i] {
			var ch, prog, key, vel uint8
			if ev.Message.GetProgramChange(&ch, &prog) {
				programs++
				if notesSeen {
					t.Errorf("track %v: program change after the first note", i)
				}
				if ch != 3 || prog != 42 {
					t.Errorf("track %v: program change channel %v program %v, expected 3 and 42", i, ch, prog)
				}
			}
			if ev.Message.GetNoteOn(&ch, &key, &vel) {
				notesSeen = true
			}
		}
		if programs != wantPrograms {
			t.Errorf("track %v has %v program changes, expected %v", i, programs, wantPrograms)
		}
	}
	// note content of the drum track: absolute on-ticks must match the
	// assembled pattern cursor and be non-decreasing
	type note struct {
		tick int
		key  uint8
	}
	var got []note
	absTick := 0
	prevTick := 0
	for _, ev := range rd.Tracks[0] {
		absTick += int(ev.Delta)
		if absTick < prevTick {
			t.Fatal("decreasing absolute tick in encoded stream")
		}
		prevTick = absTick
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 {
			if ch != 9 {
				t.Fatalf("drum note on channel %v, expected 9", ch)
			}
			got = append(got, note{tick: absTick, key: key})
		}
	}
	want := []note{
		{0, 36}, {480, 38}, {960, 36}, {1440, 38},
		{1920, 36}, {2400, 38}, {2880, 36}, {3360, 38},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v note-ons, expected %v", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("note %v = %+v, expected %+v", i, got[i], want[i])
		}
	}
}

func TestWriteDoesNotMutateSong(t *testing.T) {
	song := testSong()
	dup := song.Copy()
	if _, err := midifile.Write(song); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !equalSongs(song, &dup) {
		t.Fatal("Write mutated its input")
	}
}

func equalSongs(a, b *skysong.Song) bool {
	if a.BPM != b.BPM || a.TicksPerBeat != b.TicksPerBeat || len(a.Tracks) != len(b.Tracks) {
		return false
	}
	for i := range a.Tracks {
		at, bt := a.Tracks[i], b.Tracks[i]
		if at.Name != bt.Name || at.Channel != bt.Channel || at.Program != bt.Program || len(at.Patterns) != len(bt.Patterns) {
			return false
		}
		for j := range at.Patterns {
			ap, bp := at.Patterns[j], bt.Patterns[j]
			if ap.Length != bp.Length || len(ap.Events) != len(bp.Events) {
				return false
			}
			for k := range ap.Events {
				if ap.Events[k] != bp.Events[k] {
					return false
				}
			}
		}
	}
	return true
}
