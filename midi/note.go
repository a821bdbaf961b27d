package midi

import (
	"fmt"
	"strconv"
	"strings"
)

// Pitch classes of the natural notes.
var naturals = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

var sharpNames = [12]string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// ParseNote turns a scientific pitch name ("c4", "d#4", "bb3", "C-1") into a
// MIDI key, with c4 = 60.
func ParseNote(name string) (uint8, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if len(s) < 2 {
		return 0, fmt.Errorf("bad note name %q", name)
	}
	pc, ok := naturals[s[0]]
	if !ok {
		return 0, fmt.Errorf("bad note name %q: unknown letter", name)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		pc++
		rest = rest[1:]
	case 'b':
		pc--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("bad note name %q: octave", name)
	}
	key := (octave+1)*12 + pc
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("note %q out of MIDI range", name)
	}
	return uint8(key), nil
}

// NoteName is the inverse of ParseNote, spelling black keys with sharps.
func NoteName(key uint8) string {
	return fmt.Sprintf("%s%d", sharpNames[key%12], int(key)/12-1)
}
