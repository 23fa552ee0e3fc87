// terminal_piano.go - Raw-mode terminal keyboard as a playable surface

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Two rows of keys laid out like a piano octave starting at C:
// white keys on asdfghjk, sharps on the row above.
var pianoKeyOffsets = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5,
	't': 6, 'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12,
}

// TerminalPiano maps keypresses to note events. Terminals report key
// presses but not releases, so each press holds its note for a fixed
// gate and then releases it from a timer.
type TerminalPiano struct {
	engine *Engine
	log    *EventLog

	mu     sync.Mutex
	octave int
	gate   time.Duration
}

func NewTerminalPiano(engine *Engine, log *EventLog) *TerminalPiano {
	return &TerminalPiano{
		engine: engine,
		log:    log,
		octave: 4,
		gate:   400 * time.Millisecond,
	}
}

// Run switches stdin to raw mode and plays until 'q'. z/x shift the
// octave down/up.
func (t *TerminalPiano) Run() error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("terminal piano: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	fmt.Print("keys a-k play C through C, w/e/t/y/u are sharps, z/x octave, q quits\r\n")

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return fmt.Errorf("terminal piano: %w", err)
		}
		if n == 0 {
			continue
		}
		switch key := buf[0]; key {
		case 'q', 3: // q or Ctrl-C
			t.engine.AllNotesOff()
			return nil
		case 'z':
			t.shiftOctave(-1)
		case 'x':
			t.shiftOctave(+1)
		default:
			offset, ok := pianoKeyOffsets[key]
			if !ok {
				continue
			}
			t.press(offset)
		}
	}
}

func (t *TerminalPiano) shiftOctave(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.octave + delta
	if next >= 0 && next <= 8 {
		t.octave = next
		fmt.Printf("octave %d\r\n", t.octave)
	}
}

func (t *TerminalPiano) press(offset int) {
	t.mu.Lock()
	pitch := (t.octave+1)*12 + offset
	gate := t.gate
	t.mu.Unlock()

	t.engine.NoteOn(pitch, 0.9)
	fmt.Printf("%s\r\n", MidiToName(pitch))
	time.AfterFunc(gate, func() {
		t.engine.NoteOffPitch(pitch)
	})
}
