package skysong

// Scale identifies one of the fixed interval sets used for melodic material.
type Scale int

const (
	Major Scale = iota
	Mixolydian
	Dorian
	Minor
	Lydian
	MajorPentatonic
)

// scaleIntervals maps a scale to its sorted semitone offsets within one
// octave. The octave span is always 12 semitones regardless of how many
// intervals the scale has.
var scaleIntervals = map[Scale][]int{
	Major:           {0, 2, 4, 5, 7, 9, 11},
	Mixolydian:      {0, 2, 4, 5, 7, 9, 10},
	Dorian:          {0, 2, 3, 5, 7, 9, 10},
	Minor:           {0, 2, 3, 5, 7, 8, 10},
	Lydian:          {0, 2, 4, 6, 7, 9, 11},
	MajorPentatonic: {0, 2, 4, 7, 9},
}

var scaleNames = map[Scale]string{
	Major:           "major",
	Mixolydian:      "mixolydian",
	Dorian:          "dorian",
	Minor:           "minor",
	Lydian:          "lydian",
	MajorPentatonic: "major pentatonic",
}

// Intervals returns the semitone offsets of the scale within one octave.
func (s Scale) Intervals() []int {
	if iv, ok := scaleIntervals[s]; ok {
		return iv
	}
	return scaleIntervals[Major]
}

func (s Scale) String() string {
	if name, ok := scaleNames[s]; ok {
		return name
	}
	return "major"
}

// Pitch computes the absolute pitch of a signed scale degree relative to
// root. The degree is reduced modulo the interval count with floor-division
// semantics, so degree -1 is the last interval one octave below root rather
// than a wraparound error. Every full wrap shifts the result by 12
// semitones: Pitch(s, r, d+k*len) == Pitch(s, r, d) + 12*k for all k.
func Pitch(s Scale, root, degree int) int {
	iv := s.Intervals()
	n := len(iv)
	octave := degree / n
	index := degree % n
	if index < 0 {
		index += n
		octave--
	}
	return root + octave*12 + iv[index]
}

// ScaleForTemperature maps a temperature in degrees Celsius to a scale via
// ordered closed-open threshold bands. Every finite input falls in exactly
// one band.
func ScaleForTemperature(celsius float64) Scale {
	switch {
	case celsius < 0:
		return Minor
	case celsius < 10:
		return Dorian
	case celsius < 18:
		return Mixolydian
	case celsius < 26:
		return Major
	case celsius < 33:
		return Lydian
	default:
		return MajorPentatonic
	}
}
