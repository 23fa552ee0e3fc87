// synth_envelope.go - ADSR envelope generator

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

// EnvParams holds ADSR timing in milliseconds plus the sustain level.
// Immutable once applied to a patch; the envelope reads them at gate time.
type EnvParams struct {
	AttackMS  float32 `json:"attack_ms"`
	DecayMS   float32 `json:"decay_ms"`
	Sustain   float32 `json:"sustain_level"`
	ReleaseMS float32 `json:"release_ms"`
}

// Envelope is a per-voice amplitude state machine:
// Idle -> Attack -> Decay -> Sustain -> Release -> Idle.
// Release starts from the current level regardless of the phase it
// interrupts, so a note cut during attack does not jump to full scale.
type Envelope struct {
	phase int
	level float32

	attackLen  int // segment lengths in samples
	decayLen   int
	releaseLen int
	sustain    float32

	pos         int     // sample position within the current segment
	releaseFrom float32 // level captured when release was triggered
}

func msToSamples(ms float32, sampleRate int) int {
	if ms <= 0 {
		return 0
	}
	return int(ms * float32(sampleRate) / 1000.0)
}

// gateOn starts the envelope. Zero-length segments collapse immediately:
// attack 0 jumps to decay, attack and decay both 0 land on the sustain
// level before the first sample is rendered.
func (e *Envelope) gateOn(p EnvParams, sampleRate int) {
	e.attackLen = msToSamples(p.AttackMS, sampleRate)
	e.decayLen = msToSamples(p.DecayMS, sampleRate)
	e.releaseLen = msToSamples(p.ReleaseMS, sampleRate)
	e.sustain = p.Sustain
	e.pos = 0
	e.level = 0

	e.phase = ENV_ATTACK
	if e.attackLen == 0 {
		e.level = 1.0
		e.phase = ENV_DECAY
		if e.decayLen == 0 {
			e.level = e.sustain
			e.phase = ENV_SUSTAIN
		}
	}
}

// gateOff triggers release from whatever level the envelope is at.
// A zero release time drops straight to idle.
func (e *Envelope) gateOff() {
	if e.phase == ENV_IDLE || e.phase == ENV_RELEASE {
		return
	}
	e.releaseFrom = e.level
	e.pos = 0
	if e.releaseLen == 0 {
		e.level = 0
		e.phase = ENV_IDLE
		return
	}
	e.phase = ENV_RELEASE
}

// tick advances the envelope by one sample and returns the amplitude
// multiplier for that sample.
func (e *Envelope) tick() float32 {
	switch e.phase {
	case ENV_ATTACK:
		e.level = float32(e.pos) / float32(e.attackLen)
		e.pos++
		if e.pos >= e.attackLen {
			e.level = 1.0
			e.pos = 0
			e.phase = ENV_DECAY
			if e.decayLen == 0 {
				e.level = e.sustain
				e.phase = ENV_SUSTAIN
			}
		}

	case ENV_DECAY:
		e.level = 1.0 - (1.0-e.sustain)*float32(e.pos)/float32(e.decayLen)
		e.pos++
		if e.pos >= e.decayLen {
			e.level = e.sustain
			e.phase = ENV_SUSTAIN
		}

	case ENV_SUSTAIN:
		e.level = e.sustain

	case ENV_RELEASE:
		e.level = e.releaseFrom * (1.0 - float32(e.pos)/float32(e.releaseLen))
		e.pos++
		if e.pos >= e.releaseLen {
			e.level = 0
			e.phase = ENV_IDLE
		}

	case ENV_IDLE:
		return 0
	}
	return e.level
}

// active reports whether the envelope still produces output.
func (e *Envelope) active() bool {
	return e.phase != ENV_IDLE
}
