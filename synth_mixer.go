// synth_mixer.go - Master gain and soft limiting

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

// Mixer applies master gain to the summed voice buffer and soft limits
// the result. Summation itself happens in VoicePool.render; addition is
// commutative so voice order cannot change the mix beyond float rounding.
type Mixer struct {
	gain float32
}

func NewMixer(gain float32) *Mixer {
	return &Mixer{gain: clamp32(gain, 0, 1)}
}

func (m *Mixer) setGain(g float32) {
	m.gain = clamp32(g, 0, 1)
}

func (m *Mixer) process(buf []float32) {
	for i := range buf {
		buf[i] = softLimit(buf[i] * m.gain)
	}
}

// softLimit passes signal below the knee untouched and compresses
// anything above it toward +/-1.0, so a hot mix saturates instead of
// clipping hard.
func softLimit(x float32) float32 {
	if x != x {
		// Propagate NaN so the render guard can silence the block.
		return x
	}
	ax := x
	if ax < 0 {
		ax = -ax
	}
	if ax <= LIMIT_KNEE {
		return x
	}
	over := (ax - LIMIT_KNEE) / (1.0 - LIMIT_KNEE)
	limited := LIMIT_KNEE + (1.0-LIMIT_KNEE)*lutTanh(over)
	if x < 0 {
		return -limited
	}
	return limited
}

func clamp32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
