package compose

import (
	"github.com/lkorpela/skysong"
)

// General MIDI percussion pitches used by the rhythm voices. The voices
// never collide on an identical tick+pitch because each owns its own
// pitches and positions.
const (
	KickDrum      = 36
	AcousticSnare = 38
	ClosedHihat   = 42
	OpenHihat     = 46
	CrashCymbal   = 49
	RideCymbal    = 51
)

const drumHit = 120 // nominal drum note length in ticks

// RhythmBar generates one bar of rhythmic material from a single
// observation. Four sub-generators each read one normalized measurement:
// kick density from temperature, hihat subdivision from humidity, snare
// ghosts and fills from wind, cymbal texture from precipitation. Out of
// range velocities are clamped, never rejected; this function cannot fail.
func RhythmBar(obs skysong.Observation, bounds skysong.SeriesBounds, barIndex int) skysong.Pattern {
	p := skysong.Pattern{Length: skysong.BarTicks}
	kickVoice(&p, bounds.Temperature.Normalize(obs.Temperature), barIndex)
	hihatVoice(&p, bounds.Humidity.Normalize(obs.Humidity))
	snareVoice(&p, bounds.WindSpeed.Normalize(obs.WindSpeed), barIndex)
	cymbalVoice(&p, bounds.Precipitation.Normalize(obs.Precipitation), barIndex)
	return p
}

// velocity maps a normalized 0-1 value linearly onto lo..hi and clamps the
// result to the legal MIDI range.
func velocity(v float64, lo, hi int) int {
	return skysong.Clamp(lo+int(v*float64(hi-lo)), 0, 127)
}

// kickVoice places the two base pulses on beats one and three, then adds
// hits as the value crosses ascending bands: >= 0.60 adds beat four,
// >= 0.80 adds beat two, and >= 0.92 adds two off-beat pushes on odd bars
// only, so the densest figure does not repeat every bar.
func kickVoice(p *skysong.Pattern, v float64, barIndex int) {
	vel := velocity(v, 96, 120)
	p.Add(0, KickDrum, drumHit, vel)
	p.Add(2*skysong.TicksPerBeat, KickDrum, drumHit, vel)
	if v >= 0.60 {
		p.Add(3*skysong.TicksPerBeat, KickDrum, drumHit, vel)
	}
	if v >= 0.80 {
		p.Add(skysong.TicksPerBeat, KickDrum, drumHit, vel)
	}
	if v >= 0.92 && barIndex%2 == 1 {
		p.Add(720, KickDrum, drumHit, vel-10)
		p.Add(1680, KickDrum, drumHit, vel-10)
	}
}

// hihatVoice fills the bar with eighths below 0.50 and sixteenths at or
// above it. Every subdivision falling on a beat start gets a velocity boost
// to mark the strong beats. At >= 0.75 an open hat accent joins on the
// off-beat eighths.
func hihatVoice(p *skysong.Pattern, v float64) {
	step := skysong.TicksPerBeat / 2
	if v >= 0.50 {
		step = skysong.TicksPerBeat / 4
	}
	vel := velocity(v, 48, 72)
	for tick := 0; tick < skysong.BarTicks; tick += step {
		hitVel := vel
		if tick%skysong.TicksPerBeat == 0 {
			hitVel += 18
		}
		p.Add(tick, ClosedHihat, step/2, hitVel)
	}
	if v >= 0.75 {
		openVel := velocity(v, 60, 84)
		for tick := skysong.TicksPerBeat / 2; tick < skysong.BarTicks; tick += skysong.TicksPerBeat {
			p.Add(tick, OpenHihat, drumHit, openVel)
		}
	}
}

// snareVoice plays the backbeat on beats two and four. Low velocity ghost
// hits slip in just before each backbeat once the value reaches 0.60, a
// second pair at 0.80. A two-hit fill closes every fourth bar when the
// value is at least 0.90.
func snareVoice(p *skysong.Pattern, v float64, barIndex int) {
	vel := velocity(v, 88, 112)
	ghostVel := velocity(v, 20, 45)
	for _, base := range [2]int{skysong.TicksPerBeat, 3 * skysong.TicksPerBeat} {
		p.Add(base, AcousticSnare, drumHit, vel)
		if v >= 0.60 {
			p.Add(base-60, AcousticSnare, 60, ghostVel)
		}
		if v >= 0.80 {
			p.Add(base-120, AcousticSnare, 60, ghostVel)
		}
	}
	if v >= 0.90 && (barIndex+1)%4 == 0 {
		p.Add(1800, AcousticSnare, 60, vel-8)
		p.Add(1860, AcousticSnare, 60, vel)
	}
}

// cymbalVoice is silent below 0.55. Above that a single crash opens the
// bar; >= 0.75 adds a mid-bar crash on even bars from bar two onwards;
// >= 0.90 lays a ride figure on all four beats.
func cymbalVoice(p *skysong.Pattern, v float64, barIndex int) {
	if v < 0.55 {
		return
	}
	crashVel := velocity(v, 80, 115)
	p.Add(0, CrashCymbal, skysong.TicksPerBeat, crashVel)
	if v >= 0.75 && barIndex >= 2 && barIndex%2 == 0 {
		p.Add(2*skysong.TicksPerBeat, CrashCymbal, skysong.TicksPerBeat, crashVel-10)
	}
	if v >= 0.90 {
		rideVel := velocity(v, 55, 85)
		for beat := 0; beat < 4; beat++ {
			p.Add(beat*skysong.TicksPerBeat, RideCymbal, drumHit, rideVel)
		}
	}
}
