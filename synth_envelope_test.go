// synth_envelope_test.go - Envelope state machine tests

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"math"
	"testing"
)

func TestEnvelope_ZeroSegments(t *testing.T) {
	tests := []struct {
		name      string
		params    EnvParams
		wantFirst float32
	}{
		{
			name:      "zero attack starts in decay at full level",
			params:    EnvParams{AttackMS: 0, DecayMS: 100, Sustain: 0.5, ReleaseMS: 100},
			wantFirst: 1.0,
		},
		{
			name:      "zero attack and decay starts at sustain",
			params:    EnvParams{AttackMS: 0, DecayMS: 0, Sustain: 0.5, ReleaseMS: 100},
			wantFirst: 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			env.gateOn(tt.params, DEFAULT_SAMPLE_RATE)
			got := env.tick()
			if math.Abs(float64(got-tt.wantFirst)) > 0.01 {
				t.Errorf("first sample = %v, want %v", got, tt.wantFirst)
			}
		})
	}
}

func TestEnvelope_ZeroReleaseIsImmediate(t *testing.T) {
	var env Envelope
	env.gateOn(EnvParams{AttackMS: 0, DecayMS: 0, Sustain: 0.8, ReleaseMS: 0}, DEFAULT_SAMPLE_RATE)
	env.tick()
	env.gateOff()
	if env.active() {
		t.Error("envelope still active after zero-length release")
	}
	if got := env.tick(); got != 0 {
		t.Errorf("level after zero-length release = %v, want 0", got)
	}
}

func TestEnvelope_ADSRTimingAt48k(t *testing.T) {
	const rate = 48000
	var env Envelope
	env.gateOn(EnvParams{AttackMS: 10, DecayMS: 50, Sustain: 0.6, ReleaseMS: 200}, rate)

	// 10ms attack is 480 samples. Run all but the last and check the
	// final attack sample sits at the peak.
	var level float32
	for i := 0; i < 480; i++ {
		level = env.tick()
	}
	if math.Abs(float64(level-1.0)) > 0.01 {
		t.Errorf("level at end of attack = %v, want ~1.0", level)
	}

	// 50ms decay is another 2400 samples, landing on sustain.
	for i := 0; i < 2400; i++ {
		level = env.tick()
	}
	if math.Abs(float64(level-0.6)) > 0.01 {
		t.Errorf("level at end of decay = %v, want ~0.6", level)
	}

	// Hold in sustain for a while, the level must not drift.
	for i := 0; i < 4800; i++ {
		level = env.tick()
	}
	if math.Abs(float64(level-0.6)) > 0.001 {
		t.Errorf("sustain drifted to %v", level)
	}

	// 200ms release is 9600 samples down to silence.
	env.gateOff()
	for i := 0; i < 9600; i++ {
		level = env.tick()
	}
	if level > 0.01 {
		t.Errorf("level after full release = %v, want ~0", level)
	}
	if env.active() {
		t.Error("envelope still active after full release")
	}
}

func TestEnvelope_ReleaseFromCurrentLevel(t *testing.T) {
	const rate = DEFAULT_SAMPLE_RATE
	var env Envelope
	env.gateOn(EnvParams{AttackMS: 100, DecayMS: 50, Sustain: 0.5, ReleaseMS: 100}, rate)

	// Release halfway through the attack. The ramp down must start
	// from the interrupted level, not from sustain.
	half := msToSamples(100, rate) / 2
	var atRelease float32
	for i := 0; i < half; i++ {
		atRelease = env.tick()
	}
	env.gateOff()
	first := env.tick()
	if first > atRelease {
		t.Errorf("release started above the interrupted level: %v > %v", first, atRelease)
	}
	if atRelease-first > 0.05 {
		t.Errorf("release jumped from %v to %v", atRelease, first)
	}

	// Release must decay monotonically.
	prev := first
	for env.active() {
		cur := env.tick()
		if cur > prev+1e-6 {
			t.Fatalf("release level rose from %v to %v", prev, cur)
		}
		prev = cur
	}
}

func TestEnvelope_AttackIsMonotonic(t *testing.T) {
	var env Envelope
	env.gateOn(EnvParams{AttackMS: 20, DecayMS: 10, Sustain: 0.7, ReleaseMS: 10}, DEFAULT_SAMPLE_RATE)

	n := msToSamples(20, DEFAULT_SAMPLE_RATE)
	prev := float32(-1)
	for i := 0; i < n; i++ {
		cur := env.tick()
		if cur < prev {
			t.Fatalf("attack fell from %v to %v at sample %d", prev, cur, i)
		}
		prev = cur
	}
}

func TestEnvelope_RetriggerRestartsAttack(t *testing.T) {
	var env Envelope
	p := EnvParams{AttackMS: 50, DecayMS: 10, Sustain: 0.5, ReleaseMS: 50}
	env.gateOn(p, DEFAULT_SAMPLE_RATE)
	for i := 0; i < 2000; i++ {
		env.tick()
	}
	env.gateOff()
	for i := 0; i < 100; i++ {
		env.tick()
	}

	env.gateOn(p, DEFAULT_SAMPLE_RATE)
	if env.phase != ENV_ATTACK {
		t.Errorf("phase after retrigger = %d, want ENV_ATTACK", env.phase)
	}
	if !env.active() {
		t.Error("envelope inactive after retrigger")
	}
}
