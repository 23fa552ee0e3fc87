// synth_constants.go - Shared constants for the synthesis engine

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

// Waveform selectors for a voice's oscillator.
const (
	WAVE_SINE = iota
	WAVE_SQUARE
	WAVE_SAW
	WAVE_TRIANGLE
	WAVE_NOISE
	WAVE_FM
)

// Envelope phases. A voice whose envelope reaches ENV_IDLE is recycled
// by the pool during the render call that observed it.
const (
	ENV_IDLE = iota
	ENV_ATTACK
	ENV_DECAY
	ENV_SUSTAIN
	ENV_RELEASE
)

const (
	DEFAULT_SAMPLE_RATE = 44100
	DEFAULT_POLYPHONY   = 16
	DEFAULT_MASTER_GAIN = 0.8

	MAX_POLYPHONY = 64
)

// Pitch and velocity limits. Out-of-range note events are clamped,
// never rejected.
const (
	MIN_PITCH = 0
	MAX_PITCH = 127

	MIN_VELOCITY = 0.0
	MAX_VELOCITY = 1.0
)

const (
	MAX_SAMPLE = 1.0
	MIN_SAMPLE = -1.0

	// Output above the knee is soft limited toward +/-1.0.
	LIMIT_KNEE = 0.95
)

// Envelope timing limits in milliseconds.
const (
	MIN_ENV_MS = 0
	MAX_ENV_MS = 60000
)

// Delay effect: delay lines are sized for the maximum time at construction.
const MAX_DELAY_MS = 2000

// Chorus modulated delay line length.
const CHORUS_BUF_MS = 50

// Reverb topology, tuned at 44.1kHz and rescaled for other rates.
// Prime-length comb delays avoid arithmetic relationships between the
// echo trains; two series allpasses diffuse the comb output.
const (
	REVERB_PREDELAY_MS = 8

	COMB_DELAY_1 = 1687
	COMB_DELAY_2 = 1601
	COMB_DELAY_3 = 2053
	COMB_DELAY_4 = 2251

	COMB_DECAY_SCALE_1 = 0.97
	COMB_DECAY_SCALE_2 = 0.95
	COMB_DECAY_SCALE_3 = 0.93
	COMB_DECAY_SCALE_4 = 0.91

	ALLPASS_DELAY_1 = 389
	ALLPASS_DELAY_2 = 307
	ALLPASS_COEF    = 0.5

	REVERB_ATTENUATION = 0.3
)

// White noise LFSR, taps 23 and 18 for a maximal-length sequence. The
// raw bit stream is smoothed by a one-pole filter; the makeup gain
// restores loudness and the branch clamps the result to full scale.
const (
	NOISE_LFSR_SEED   = 0x7FFFFF
	NOISE_LFSR_MASK   = 0x7FFFFF
	NOISE_MAKEUP_GAIN = 2.5
)

const TWO_PI = float32(6.283185307179586)
