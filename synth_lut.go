// synth_lut.go - Lookup tables for the per-sample synthesis hot path

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import "math"

const (
	sinLUTSize = 8192
	sinLUTMask = sinLUTSize - 1

	tanhLUTSize = 4096
	tanhLUTMin  = float32(-4.0)
	tanhLUTMax  = float32(4.0)
)

const tanhLUTScale = float32(tanhLUTSize-1) / (tanhLUTMax - tanhLUTMin)

// sinLUT holds one cycle of sine indexed by normalized phase [0,1).
var sinLUT [sinLUTSize]float32

// tanhLUT holds tanh over [-4,4]; tanh saturates outside that range.
var tanhLUT [tanhLUTSize]float32

func init() {
	for i := 0; i < sinLUTSize; i++ {
		sinLUT[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(sinLUTSize)))
	}
	for i := 0; i < tanhLUTSize; i++ {
		x := float64(tanhLUTMin) + float64(i)*float64(tanhLUTMax-tanhLUTMin)/float64(tanhLUTSize-1)
		tanhLUT[i] = float32(math.Tanh(x))
	}
}

// lutSin returns sin(2*pi*phase) for normalized phase with linear
// interpolation between adjacent table entries. Phase outside [0,1) wraps.
//
//go:nosplit
func lutSin(phase float32) float32 {
	phase -= float32(int(phase))
	if phase < 0 {
		phase += 1
	}

	indexF := phase * sinLUTSize
	index := int(indexF)
	frac := indexF - float32(index)

	index &= sinLUTMask
	next := (index + 1) & sinLUTMask
	return sinLUT[index] + frac*(sinLUT[next]-sinLUT[index])
}

// lutTanh returns tanh(x) with linear interpolation, clamped to +/-1
// outside [-4,4].
//
//go:nosplit
func lutTanh(x float32) float32 {
	if x <= tanhLUTMin {
		return -1.0
	}
	if x >= tanhLUTMax {
		return 1.0
	}

	indexF := (x - tanhLUTMin) * tanhLUTScale
	index := int(indexF)
	frac := indexF - float32(index)

	// A NaN input converts to an arbitrary int; never index with it.
	if index < 0 {
		return tanhLUT[0]
	}
	if index >= tanhLUTSize-1 {
		return tanhLUT[tanhLUTSize-1]
	}
	return tanhLUT[index] + frac*(tanhLUT[index+1]-tanhLUT[index])
}

// polyBLEP applies polynomial band-limited step correction for saw and
// square discontinuities. t is the normalized phase [0,1), dt the phase
// increment per sample.
//
//go:nosplit
func polyBLEP(t, dt float32) float32 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1.0
	} else if t > 1.0-dt {
		t = (t - 1.0) / dt
		return t*t + t + t + 1.0
	}
	return 0.0
}
