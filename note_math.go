// note_math.go - MIDI note number, note name, and frequency conversions

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MidiToFreq converts a MIDI note number to its equal-temperament
// frequency with A4 (note 69) at 440 Hz.
func MidiToFreq(note int) float64 {
	return 440.0 * math.Pow(2, float64(note-69)/12.0)
}

// MidiToName formats a note number as name plus octave, e.g. 60 -> "C4".
func MidiToName(note int) string {
	if note < MIN_PITCH || note > MAX_PITCH {
		return ""
	}
	octave := note/12 - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}

// NameToMidi parses names like "C4", "F#3" or "a#2" back to a note
// number.
func NameToMidi(name string) (int, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid note name %q", name)
	}

	split := 1
	if len(name) > 2 && name[1] == '#' {
		split = 2
	}
	pitchClass := -1
	for i, n := range noteNames {
		if n == name[:split] {
			pitchClass = i
			break
		}
	}
	if pitchClass < 0 {
		return 0, fmt.Errorf("invalid note name %q", name)
	}

	octave, err := strconv.Atoi(name[split:])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q", name)
	}
	note := (octave+1)*12 + pitchClass
	if note < MIN_PITCH || note > MAX_PITCH {
		return 0, fmt.Errorf("note %q out of MIDI range", name)
	}
	return note, nil
}
