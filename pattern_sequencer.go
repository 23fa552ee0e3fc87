// pattern_sequencer.go - 16-step pattern clock driving note events

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const PatternSteps = 16

// Step is one slot in a pattern. Velocity 0 with On set still triggers;
// the engine clamps as usual.
type Step struct {
	On       bool
	Pitch    int
	Velocity float64
}

// Pattern is one bar of sixteenth notes.
type Pattern struct {
	Steps [PatternSteps]Step
}

// Sequencer steps a pattern against the engine from its own goroutine.
// It lives entirely on the control side: every trigger goes through the
// engine's command queue, never into render state.
type Sequencer struct {
	engine *Engine
	log    *EventLog

	mu      sync.Mutex
	pattern Pattern
	bpm     float64
	gate    float64 // fraction of the step a note stays held
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSequencer(engine *Engine, log *EventLog) *Sequencer {
	return &Sequencer{
		engine: engine,
		log:    log,
		bpm:    120,
		gate:   0.5,
	}
}

func (s *Sequencer) SetPattern(p Pattern) {
	s.mu.Lock()
	s.pattern = p
	s.mu.Unlock()
}

func (s *Sequencer) SetTempo(bpm float64) error {
	if bpm < 20 || bpm > 300 {
		return fmt.Errorf("tempo %g out of range [20,300]", bpm)
	}
	s.mu.Lock()
	s.bpm = bpm
	s.mu.Unlock()
	return nil
}

// Tempo returns the current BPM.
func (s *Sequencer) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

// SetGate sets how long each triggered note holds, as a fraction of the
// step duration.
func (s *Sequencer) SetGate(fraction float64) error {
	if fraction <= 0 || fraction > 1 {
		return fmt.Errorf("gate %g out of range (0,1]", fraction)
	}
	s.mu.Lock()
	s.gate = fraction
	s.mu.Unlock()
	return nil
}

// Running reports whether the clock goroutine is live.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Start launches the clock. Restarting while running is a no-op.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop halts the clock and releases anything still held.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.engine.AllNotesOff()
}

// run receives its own done channel: a Start racing a finishing Stop
// swaps s.done, and the old goroutine must not close the new channel.
func (s *Sequencer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	step := 0
	for {
		s.mu.Lock()
		st := s.pattern.Steps[step]
		stepDur := time.Duration(60.0 / s.bpm / 4.0 * float64(time.Second))
		gate := s.gate
		s.mu.Unlock()

		gateDur := time.Duration(float64(stepDur) * gate)

		if st.On {
			s.engine.NoteOn(st.Pitch, st.Velocity)
			select {
			case <-ctx.Done():
				s.engine.NoteOffPitch(st.Pitch)
				return
			case <-time.After(gateDur):
			}
			s.engine.NoteOffPitch(st.Pitch)
			select {
			case <-ctx.Done():
				return
			case <-time.After(stepDur - gateDur):
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case <-time.After(stepDur):
			}
		}

		step = (step + 1) % PatternSteps
	}
}
