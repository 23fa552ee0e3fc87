// synth_voice.go - Single sounding note: oscillator plus envelope state

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

// VoiceHandle identifies a note started by the engine. Zero is never a
// valid handle.
type VoiceHandle int64

// Patch is the per-note parameter snapshot read at note-on. Built off the
// real-time path and installed atomically; live voices keep the values
// they started with.
type Patch struct {
	Waveform int
	Env      EnvParams
	FMRatio  float32 // modulator frequency as a multiple of the carrier
	FMIndex  float32 // modulation depth in phase units
}

// Voice is one instance of a sounding note. Voices are preallocated by
// the pool and recycled; nothing here allocates after construction.
type Voice struct {
	// Hot fields touched every sample
	frequency float32 // oscillator frequency in Hz
	phase     float32 // normalized phase, wraps in [0,1)
	phaseInc  float32 // frequency / sample rate
	velocity  float32 // note velocity 0-1, applied at mix time
	env       Envelope

	// FM operator state
	modPhase float32
	fmRatio  float32
	fmIndex  float32

	// Noise generator state
	noiseSR    uint32
	noiseState float32 // one-pole smoothing of the raw LFSR output

	waveform int
	active   bool
	gated    bool

	// Bookkeeping for the pool's stealing policy
	handle  VoiceHandle
	pitch   uint8
	startAt uint64 // pool sample counter at note-on
}

// start (re)initializes a voice for a new note. Called by the pool on
// the render path; must not allocate.
func (v *Voice) start(h VoiceHandle, pitch uint8, velocity float32, p *Patch, sampleRate int, now uint64) {
	v.handle = h
	v.pitch = pitch
	v.velocity = velocity
	v.frequency = float32(MidiToFreq(int(pitch)))
	v.phase = 0
	v.phaseInc = v.frequency / float32(sampleRate)
	v.modPhase = 0
	v.waveform = p.Waveform
	v.fmRatio = p.FMRatio
	v.fmIndex = p.FMIndex
	if v.noiseSR == 0 {
		v.noiseSR = NOISE_LFSR_SEED
	}
	v.noiseState = 0
	v.startAt = now
	v.active = true
	v.gated = true
	v.env.gateOn(p.Env, sampleRate)
}

// release transitions the envelope into its release phase.
func (v *Voice) release() {
	if !v.active {
		return
	}
	v.gated = false
	v.env.gateOff()
	if !v.env.active() {
		v.active = false
	}
}

// tick produces the next raw sample (pre-velocity) and advances the
// oscillator and envelope. Returns 0 once the envelope has gone idle.
func (v *Voice) tick() float32 {
	level := v.env.tick()
	if !v.env.active() {
		v.active = false
		return 0
	}

	var raw float32
	switch v.waveform {
	case WAVE_SINE:
		raw = lutSin(v.phase)

	case WAVE_SQUARE:
		if v.phase < 0.5 {
			raw = 1.0
		} else {
			raw = -1.0
		}
		// Band-limit both edges of the pulse
		raw += polyBLEP(v.phase, v.phaseInc)
		half := v.phase + 0.5
		half -= float32(int(half))
		raw -= polyBLEP(half, v.phaseInc)

	case WAVE_SAW:
		raw = 2.0*v.phase - 1.0
		raw -= polyBLEP(v.phase, v.phaseInc)

	case WAVE_TRIANGLE:
		if v.phase < 0.5 {
			raw = 4.0*v.phase - 1.0
		} else {
			raw = 3.0 - 4.0*v.phase
		}

	case WAVE_NOISE:
		newBit := ((v.noiseSR >> 22) ^ (v.noiseSR >> 17)) & 1
		v.noiseSR = ((v.noiseSR << 1) | newBit) & NOISE_LFSR_MASK
		value := float32(v.noiseSR&1)*2 - 1
		v.noiseState = 0.95*v.noiseState + 0.05*value
		// Makeup gain restores level lost to the smoothing; long runs of
		// equal LFSR bits can still push the smoothed value toward +/-1,
		// so the branch clamps to keep peaks inside full scale.
		raw = clamp32(v.noiseState*NOISE_MAKEUP_GAIN, MIN_SAMPLE, MAX_SAMPLE)

	case WAVE_FM:
		raw = lutSin(v.phase + v.fmIndex*lutSin(v.modPhase))
		v.modPhase += v.phaseInc * v.fmRatio
		if v.modPhase >= 1.0 {
			v.modPhase -= 1.0
		}
	}

	v.phase += v.phaseInc
	if v.phase >= 1.0 {
		v.phase -= 1.0
	}

	return raw * level
}
