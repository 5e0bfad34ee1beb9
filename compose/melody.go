package compose

import (
	"math"
	"math/rand"

	"github.com/lkorpela/skysong"
)

// baseRoot is middle C; the octave schedule shifts it by at most one octave
// in either direction.
const baseRoot = 60

// MelodyBar generates one bar of melodic material from a single
// observation. The scale follows the raw temperature, the octave register
// follows the hour of day, and three sub-generators read the normalized
// measurements: a sustained pad from humidity, an arpeggio from wind and a
// scattered rain figure from precipitation. All randomness comes from rng
// so that a fixed seed reproduces the output exactly.
func MelodyBar(obs skysong.Observation, bounds skysong.SeriesBounds, barIndex int, rng *rand.Rand) skysong.Pattern {
	p := skysong.Pattern{Length: skysong.BarTicks}
	scale := skysong.ScaleForTemperature(obs.Temperature)
	root := baseRoot + octaveShift(obs.Hour())
	padVoice(&p, scale, root, bounds.Humidity.Normalize(obs.Humidity))
	arpeggioVoice(&p, scale, root, bounds.WindSpeed.Normalize(obs.WindSpeed), barIndex, rng)
	rainVoice(&p, scale, root, bounds.Precipitation.Normalize(obs.Precipitation), rng)
	return p
}

// octaveShift maps the hour of day onto a register: low at night, middle in
// the morning and evening, high during the day. Five closed-open bands.
func octaveShift(hour int) int {
	switch {
	case hour < 6:
		return -12
	case hour < 10:
		return 0
	case hour < 16:
		return 12
	case hour < 21:
		return 0
	default:
		return -12
	}
}

// padVoice sustains a root-and-harmony chord. The chord grows and the
// sustain lengthens as humidity rises: a bare fifth for half a bar below
// 0.55, a triad for three quarters from 0.55, and a seventh chord for the
// whole bar from 0.80.
func padVoice(p *skysong.Pattern, scale skysong.Scale, root int, v float64) {
	degrees := []int{0, 4}
	sustain := skysong.BarTicks / 2
	if v >= 0.55 {
		degrees = []int{0, 2, 4}
		sustain = 3 * skysong.BarTicks / 4
	}
	if v >= 0.80 {
		degrees = []int{0, 2, 4, 6}
		sustain = skysong.BarTicks
	}
	vel := velocity(v, 50, 80)
	for _, deg := range degrees {
		p.Add(0, skysong.Pitch(scale, root, deg), sustain, vel)
	}
}

// arpeggioVoice is silent below 0.55; above, ascending bands select one of
// four densities (1, 2, 4 or 8 evenly spaced notes per bar). Even bars run
// the degrees upward, odd bars downward, and the second half of the
// traversal jumps up an octave. A small bounded velocity jitter of at most
// +-8 is applied per note and clamped afterwards.
func arpeggioVoice(p *skysong.Pattern, scale skysong.Scale, root int, v float64, barIndex int, rng *rand.Rand) {
	var count int
	switch {
	case v < 0.55:
		return
	case v < 0.70:
		count = 1
	case v < 0.85:
		count = 2
	case v < 0.95:
		count = 4
	default:
		count = 8
	}
	step := skysong.BarTicks / count
	vel := velocity(v, 64, 96)
	for i := 0; i < count; i++ {
		deg := i
		if barIndex%2 == 1 {
			deg = count - 1 - i
		}
		pitch := skysong.Pitch(scale, root, deg)
		if i >= (count+1)/2 {
			pitch += 12
		}
		jitter := rng.Intn(17) - 8
		p.Add(i*step, pitch, step/2, vel+jitter)
	}
}

// rainVoice is silent below 0.55; above, it scatters descending notes at
// random offsets within the bar, more of them the harder it rains, with
// random durations of 60-240 ticks. From 0.90 it adds one long low note
// doubled an octave below.
func rainVoice(p *skysong.Pattern, scale skysong.Scale, root int, v float64, rng *rand.Rand) {
	if v < 0.55 {
		return
	}
	count := 2 + int(math.Round(v*6))
	vel := velocity(v, 40, 75)
	for i := 0; i < count; i++ {
		tick := rng.Intn(skysong.BarTicks - 240)
		length := 60 + rng.Intn(181)
		p.Add(tick, skysong.Pitch(scale, root, 7-i), length, vel)
	}
	if v >= 0.90 {
		low := skysong.Pitch(scale, root-12, 0)
		p.Add(0, low, skysong.BarTicks, velocity(v, 45, 60))
		p.Add(0, low-12, skysong.BarTicks, velocity(v, 45, 60))
	}
}
