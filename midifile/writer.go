// Package midifile serializes a skysong.Song into a standard MIDI file
// (format 1): a header chunk declaring the tick resolution followed by one
// track chunk per song track, with variable-length delta times and running
// status, so the output plays in any standard player.
package midifile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/lkorpela/skysong"
)

// ErrNoTracks is returned when a song with zero tracks is serialized; no
// bytes are produced. An empty track or a pattern with zero events is
// valid and yields a silent span instead.
var ErrNoTracks = errors.New("song contains no tracks")

const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusProgramChange = 0xC0

	metaStatus    = 0xFF
	metaTrackName = 0x03
	metaEndTrack  = 0x2F
	metaTempo     = 0x51
)

// channelEvent is one note on/off in absolute-tick form, before delta
// encoding.
type channelEvent struct {
	tick   int
	status byte
	key    byte
	value  byte
}

// Write serializes the song into a complete MIDI file byte stream. The
// song is borrowed read-only; nothing in it is mutated.
func Write(song *skysong.Song) ([]byte, error) {
	if len(song.Tracks) == 0 {
		return nil, ErrNoTracks
	}
	division := song.TicksPerBeat
	if division < 1 {
		division = skysong.TicksPerBeat
	}
	buf := new(bytes.Buffer)
	buf.Write([]byte("MThd"))
	binary.Write(buf, binary.BigEndian, uint32(6))
	binary.Write(buf, binary.BigEndian, uint16(1)) // format 1
	binary.Write(buf, binary.BigEndian, uint16(len(song.Tracks)))
	binary.Write(buf, binary.BigEndian, uint16(division))
	for i, t := range song.Tracks {
		chunk, err := trackChunk(&t, song.BPM, i == 0)
		if err != nil {
			return nil, fmt.Errorf("could not serialize track %v: %v", i, err)
		}
		buf.Write([]byte("MTrk"))
		binary.Write(buf, binary.BigEndian, uint32(len(chunk)))
		buf.Write(chunk)
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the song and writes it to path. The file is written
// in one shot from a complete buffer, so an aborted run never leaves a
// partial file on disk.
func WriteFile(path string, song *skysong.Song) error {
	data, err := Write(song)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %v", path, err)
	}
	return nil
}

// trackChunk encodes the body of one track chunk: name meta first, tempo
// meta on the first track only, one program change before the first note
// on tracks that declare a program (never on the drum channel), then the
// note events in non-decreasing absolute tick order.
func trackChunk(t *skysong.Track, bpm int, first bool) ([]byte, error) {
	if t.Channel < 0 || t.Channel > 15 {
		return nil, fmt.Errorf("channel %v outside 0-15", t.Channel)
	}
	buf := new(bytes.Buffer)
	writeMeta(buf, 0, metaTrackName, []byte(t.Name))
	if first {
		if bpm < 1 {
			bpm = 120
		}
		usPerBeat := 60000000 / bpm
		tempo := []byte{byte(usPerBeat >> 16), byte(usPerBeat >> 8), byte(usPerBeat)}
		writeMeta(buf, 0, metaTempo, tempo)
	}
	channel := byte(t.Channel)
	var events []channelEvent
	cursor := 0
	for _, p := range t.Patterns {
		for _, e := range p.BarEvents() {
			on := cursor + e.Tick
			events = append(events,
				channelEvent{tick: on, status: statusNoteOn | channel, key: byte(e.Pitch), value: byte(e.Velocity)},
				channelEvent{tick: on + e.Length, status: statusNoteOff | channel, key: byte(e.Pitch), value: 0})
		}
		cursor += p.BarLength()
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })
	if t.Program >= 0 && t.Channel != 9 {
		writeVarLen(buf, 0)
		buf.WriteByte(statusProgramChange | channel)
		buf.WriteByte(byte(skysong.Clamp(t.Program, 0, 127)))
	}
	prevTick := 0
	var runningStatus byte
	for _, e := range events {
		writeVarLen(buf, uint32(e.tick-prevTick))
		prevTick = e.tick
		if e.status != runningStatus {
			buf.WriteByte(e.status)
			runningStatus = e.status
		}
		buf.WriteByte(e.key)
		buf.WriteByte(e.value)
	}
	writeMeta(buf, 0, metaEndTrack, nil)
	return buf.Bytes(), nil
}

// writeMeta writes a delta time followed by one meta event.
func writeMeta(buf *bytes.Buffer, delta uint32, kind byte, data []byte) {
	writeVarLen(buf, delta)
	buf.WriteByte(metaStatus)
	buf.WriteByte(kind)
	writeVarLen(buf, uint32(len(data)))
	buf.Write(data)
}

// writeVarLen encodes a value as a MIDI variable-length quantity: seven
// bits per byte, high bit set on every byte except the last.
func writeVarLen(buf *bytes.Buffer, value uint32) {
	bytes := [5]byte{byte(value & 0x7F)}
	n := 1
	for value >>= 7; value > 0; value >>= 7 {
		bytes[n] = byte(value&0x7F) | 0x80
		n++
	}
	for i := n - 1; i >= 0; i-- {
		buf.WriteByte(bytes[i])
	}
}
