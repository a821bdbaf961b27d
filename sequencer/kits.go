package sequencer

// Role decides how a track resolves.
type Role string

const (
	RolePercussive Role = "percussive"
	RoleMelodic    Role = "melodic"
)

// ChordRange selects Pitches for steps From..To inclusive.
type ChordRange struct {
	From    int      `yaml:"from"`
	To      int      `yaml:"to"`
	Pitches []string `yaml:"pitches"`
}

// Contains reports whether step falls inside the range.
func (c ChordRange) Contains(step int) bool {
	return step >= c.From && step <= c.To
}

// Voice binds one track to a sound.
type Voice struct {
	Name     string       `yaml:"name"`
	Role     Role         `yaml:"role"`
	Sample   string       `yaml:"sample,omitempty"`   // percussive
	Chords   []ChordRange `yaml:"chords,omitempty"`   // melodic
	Duration float64      `yaml:"duration,omitempty"` // melodic, seconds
}

// DefaultChordDuration is the release time of melodic voices.
const DefaultChordDuration = 0.5

// DefaultVoices is the reference kit: five drum samples keyed by note name
// and a synth whose chord drops a minor third from step 7 on.
func DefaultVoices() []Voice {
	return []Voice{
		{Name: "Kick", Role: RolePercussive, Sample: "c0"},
		{Name: "Clap", Role: RolePercussive, Sample: "d0"},
		{Name: "Hat", Role: RolePercussive, Sample: "e0"},
		{Name: "808Kick3", Role: RolePercussive, Sample: "f0"},
		{Name: "808Snare3", Role: RolePercussive, Sample: "g0"},
		{
			Name: "Synth",
			Role: RoleMelodic,
			Chords: []ChordRange{
				{From: 0, To: 6, Pitches: []string{"c4", "d#4", "g4"}},
				{From: 7, To: PatternLength - 1, Pitches: []string{"a#3", "d4", "g4"}},
			},
			Duration: DefaultChordDuration,
		},
	}
}

// VoiceNames returns the track names of a voice table in order.
func VoiceNames(voices []Voice) []string {
	names := make([]string, len(voices))
	for i, v := range voices {
		names[i] = v.Name
	}
	return names
}
