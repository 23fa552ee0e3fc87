// synth_effects.go - Effect processors and the ordered effect chain

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import "fmt"

// Effect is one processor in the chain. Process mutates the buffer in
// place using only state owned by the effect; SetParam and Reset are
// called on the render thread via the command queue or the fault guard
// and must not allocate.
type Effect interface {
	Name() string
	Process(buf []float32)
	SetParam(name string, value float32) error
	Params() map[string]float32
	SetBypassed(b bool)
	Bypassed() bool
	Reset()
}

// EffectConfig describes one chain slot in a preset.
type EffectConfig struct {
	Name     string             `json:"name"`
	Bypassed bool               `json:"bypassed"`
	Params   map[string]float32 `json:"params"`
}

// EffectChain runs effects in configured order. A bypassed effect is
// skipped entirely: its delay lines and LFO phases freeze, avoiding a
// stale-buffer transient when it is re-enabled.
type EffectChain struct {
	effects []Effect
}

// NewEffectChain builds a chain from configs. Unknown effect names and
// out-of-range parameters are rejected; construction happens off the
// real-time path so the chain can be installed fully formed.
func NewEffectChain(sampleRate int, configs []EffectConfig) (*EffectChain, error) {
	c := &EffectChain{}
	for _, cfg := range configs {
		var e Effect
		switch cfg.Name {
		case "delay":
			e = NewDelay(sampleRate)
		case "chorus":
			e = NewChorus(sampleRate)
		case "tremolo":
			e = NewTremolo(sampleRate)
		case "distortion":
			e = NewDistortion()
		case "reverb":
			e = NewReverb(sampleRate)
		default:
			return nil, fmt.Errorf("unknown effect %q", cfg.Name)
		}
		for name, value := range cfg.Params {
			if err := e.SetParam(name, value); err != nil {
				return nil, fmt.Errorf("effect %s: %w", cfg.Name, err)
			}
		}
		e.SetBypassed(cfg.Bypassed)
		c.effects = append(c.effects, e)
	}
	return c, nil
}

func (c *EffectChain) Process(buf []float32) {
	for _, e := range c.effects {
		if e.Bypassed() {
			continue
		}
		e.Process(buf)
	}
}

// Reset flushes every effect's internal state. The render guard calls
// this after silencing a poisoned buffer so a non-finite value cannot
// recirculate through delay-line feedback.
func (c *EffectChain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

// find returns the first effect with the given name, or nil.
func (c *EffectChain) find(name string) Effect {
	for _, e := range c.effects {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// Configs snapshots the chain back into preset form.
func (c *EffectChain) Configs() []EffectConfig {
	out := make([]EffectConfig, 0, len(c.effects))
	for _, e := range c.effects {
		out = append(out, EffectConfig{
			Name:     e.Name(),
			Bypassed: e.Bypassed(),
			Params:   e.Params(),
		})
	}
	return out
}

func paramRangeErr(name string, value, lo, hi float32) error {
	return fmt.Errorf("param %s=%g out of range [%g,%g]", name, value, lo, hi)
}

// ---- Delay ----

// Delay is a feedback delay line. The buffer is sized for MAX_DELAY_MS at
// construction; changing time_ms moves the read tap, never reallocates.
type Delay struct {
	buf      []float32
	pos      int
	delaySmp int
	feedback float32
	mix      float32
	timeMS   float32
	bypassed bool

	sampleRate int
}

func NewDelay(sampleRate int) *Delay {
	d := &Delay{
		buf:        make([]float32, sampleRate*MAX_DELAY_MS/1000),
		feedback:   0.35,
		mix:        0.3,
		sampleRate: sampleRate,
	}
	d.setTime(300)
	return d
}

func (d *Delay) Name() string { return "delay" }

func (d *Delay) setTime(ms float32) {
	d.timeMS = ms
	d.delaySmp = int(ms * float32(d.sampleRate) / 1000.0)
	if d.delaySmp < 1 {
		d.delaySmp = 1
	}
	if d.delaySmp >= len(d.buf) {
		d.delaySmp = len(d.buf) - 1
	}
}

func (d *Delay) SetParam(name string, value float32) error {
	switch name {
	case "time_ms":
		if value < 0 || value > MAX_DELAY_MS {
			return paramRangeErr(name, value, 0, MAX_DELAY_MS)
		}
		d.setTime(value)
	case "feedback":
		if value < 0 || value > 0.99 {
			return paramRangeErr(name, value, 0, 0.99)
		}
		d.feedback = value
	case "mix":
		if value < 0 || value > 1 {
			return paramRangeErr(name, value, 0, 1)
		}
		d.mix = value
	default:
		return fmt.Errorf("delay: unknown param %q", name)
	}
	return nil
}

func (d *Delay) Params() map[string]float32 {
	return map[string]float32{"time_ms": d.timeMS, "feedback": d.feedback, "mix": d.mix}
}

func (d *Delay) SetBypassed(b bool) { d.bypassed = b }
func (d *Delay) Bypassed() bool     { return d.bypassed }

func (d *Delay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
}

func (d *Delay) Process(buf []float32) {
	n := len(d.buf)
	for i, in := range buf {
		read := d.pos - d.delaySmp
		if read < 0 {
			read += n
		}
		delayed := d.buf[read]
		d.buf[d.pos] = in + delayed*d.feedback
		d.pos++
		if d.pos == n {
			d.pos = 0
		}
		buf[i] = in*(1.0-d.mix) + delayed*d.mix
	}
}

// ---- Chorus ----

// Chorus reads a short delay line at an LFO-modulated offset with linear
// interpolation between taps.
type Chorus struct {
	buf      []float32
	pos      int
	lfoPhase float32
	lfoInc   float32
	rate     float32
	depth    float32
	mix      float32
	bypassed bool

	sampleRate int
}

func NewChorus(sampleRate int) *Chorus {
	c := &Chorus{
		buf:        make([]float32, sampleRate*CHORUS_BUF_MS/1000),
		depth:      0.5,
		mix:        0.5,
		sampleRate: sampleRate,
	}
	c.setRate(1.0)
	return c
}

func (c *Chorus) Name() string { return "chorus" }

func (c *Chorus) setRate(hz float32) {
	c.rate = hz
	c.lfoInc = hz / float32(c.sampleRate)
}

func (c *Chorus) SetParam(name string, value float32) error {
	switch name {
	case "rate":
		if value < 0 || value > 5 {
			return paramRangeErr(name, value, 0, 5)
		}
		c.setRate(value)
	case "depth":
		if value < 0 || value > 1 {
			return paramRangeErr(name, value, 0, 1)
		}
		c.depth = value
	case "mix":
		if value < 0 || value > 1 {
			return paramRangeErr(name, value, 0, 1)
		}
		c.mix = value
	default:
		return fmt.Errorf("chorus: unknown param %q", name)
	}
	return nil
}

func (c *Chorus) Params() map[string]float32 {
	return map[string]float32{"rate": c.rate, "depth": c.depth, "mix": c.mix}
}

func (c *Chorus) SetBypassed(b bool) { c.bypassed = b }
func (c *Chorus) Bypassed() bool     { return c.bypassed }

func (c *Chorus) Reset() {
	for i := range c.buf {
		c.buf[i] = 0
	}
}

func (c *Chorus) Process(buf []float32) {
	n := len(c.buf)
	maxDepth := float32(n-2) * 0.5
	for i, in := range buf {
		c.buf[c.pos] = in

		lfo := lutSin(c.lfoPhase)
		c.lfoPhase += c.lfoInc
		if c.lfoPhase >= 1.0 {
			c.lfoPhase -= 1.0
		}

		offset := 1.0 + c.depth*maxDepth*(1.0+lfo)*0.5
		idx := int(offset)
		frac := offset - float32(idx)

		r0 := c.pos - idx
		if r0 < 0 {
			r0 += n
		}
		r1 := r0 - 1
		if r1 < 0 {
			r1 += n
		}
		wet := c.buf[r0] + frac*(c.buf[r1]-c.buf[r0])

		c.pos++
		if c.pos == n {
			c.pos = 0
		}
		buf[i] = in*(1.0-c.mix) + wet*c.mix
	}
}

// ---- Tremolo ----

// Tremolo modulates amplitude with a sine LFO.
type Tremolo struct {
	lfoPhase float32
	lfoInc   float32
	rate     float32
	depth    float32
	bypassed bool

	sampleRate int
}

func NewTremolo(sampleRate int) *Tremolo {
	t := &Tremolo{depth: 0.5, sampleRate: sampleRate}
	t.setRate(5.0)
	return t
}

func (t *Tremolo) Name() string { return "tremolo" }

func (t *Tremolo) setRate(hz float32) {
	t.rate = hz
	t.lfoInc = hz / float32(t.sampleRate)
}

func (t *Tremolo) SetParam(name string, value float32) error {
	switch name {
	case "rate":
		if value < 0 || value > 20 {
			return paramRangeErr(name, value, 0, 20)
		}
		t.setRate(value)
	case "depth":
		if value < 0 || value > 1 {
			return paramRangeErr(name, value, 0, 1)
		}
		t.depth = value
	default:
		return fmt.Errorf("tremolo: unknown param %q", name)
	}
	return nil
}

func (t *Tremolo) Params() map[string]float32 {
	return map[string]float32{"rate": t.rate, "depth": t.depth}
}

func (t *Tremolo) SetBypassed(b bool) { t.bypassed = b }
func (t *Tremolo) Bypassed() bool     { return t.bypassed }

// Reset is a no-op: the LFO holds no signal state.
func (t *Tremolo) Reset() {}

func (t *Tremolo) Process(buf []float32) {
	for i := range buf {
		gain := 1.0 - t.depth*(0.5+0.5*lutSin(t.lfoPhase))
		t.lfoPhase += t.lfoInc
		if t.lfoPhase >= 1.0 {
			t.lfoPhase -= 1.0
		}
		buf[i] *= gain
	}
}

// ---- Distortion ----

// Distortion is tanh waveshaping normalized so unity-level input maps to
// unity-level output at any drive.
type Distortion struct {
	drive    float32
	norm     float32 // 1 / tanh(drive)
	bypassed bool
}

func NewDistortion() *Distortion {
	d := &Distortion{}
	d.setDrive(1.0)
	return d
}

func (d *Distortion) Name() string { return "distortion" }

func (d *Distortion) setDrive(drive float32) {
	if drive < 0.01 {
		drive = 0.01
	}
	d.drive = drive
	d.norm = 1.0 / lutTanh(drive)
}

func (d *Distortion) SetParam(name string, value float32) error {
	if name != "drive" {
		return fmt.Errorf("distortion: unknown param %q", name)
	}
	if value < 0 || value > 4 {
		return paramRangeErr(name, value, 0, 4)
	}
	d.setDrive(value)
	return nil
}

func (d *Distortion) Params() map[string]float32 {
	return map[string]float32{"drive": d.drive}
}

func (d *Distortion) SetBypassed(b bool) { d.bypassed = b }
func (d *Distortion) Bypassed() bool     { return d.bypassed }

// Reset is a no-op: the waveshaper is stateless.
func (d *Distortion) Reset() {}

func (d *Distortion) Process(buf []float32) {
	for i := range buf {
		buf[i] = lutTanh(buf[i]*d.drive) * d.norm
	}
}

// ---- Reverb ----

type combLine struct {
	buf   []float32
	pos   int
	decay float32
}

// Reverb is the classic parallel-comb / series-allpass topology with a
// short pre-delay separating the dry signal from the early reflections.
type Reverb struct {
	preDelay   []float32
	prePos     int
	combs      [4]combLine
	allpass    [2][]float32
	allpassPos [2]int
	mix        float32
	decay      float32
	bypassed   bool
}

func NewReverb(sampleRate int) *Reverb {
	scale := float32(sampleRate) / 44100.0
	scaled := func(n int) int {
		s := int(float32(n) * scale)
		if s < 1 {
			s = 1
		}
		return s
	}

	r := &Reverb{
		preDelay: make([]float32, scaled(REVERB_PREDELAY_MS*44100/1000)),
		mix:      0.3,
	}
	combDelays := [4]int{COMB_DELAY_1, COMB_DELAY_2, COMB_DELAY_3, COMB_DELAY_4}
	for i := range r.combs {
		r.combs[i].buf = make([]float32, scaled(combDelays[i]))
	}
	r.allpass[0] = make([]float32, scaled(ALLPASS_DELAY_1))
	r.allpass[1] = make([]float32, scaled(ALLPASS_DELAY_2))
	r.setDecay(0.6)
	return r
}

func (r *Reverb) Name() string { return "reverb" }

// setDecay distributes the decay parameter across the comb bank with the
// per-comb scaling that keeps the tail smooth.
func (r *Reverb) setDecay(decay float32) {
	r.decay = decay
	base := 0.1 + decay*0.89
	r.combs[0].decay = base * COMB_DECAY_SCALE_1
	r.combs[1].decay = base * COMB_DECAY_SCALE_2
	r.combs[2].decay = base * COMB_DECAY_SCALE_3
	r.combs[3].decay = base * COMB_DECAY_SCALE_4
}

func (r *Reverb) SetParam(name string, value float32) error {
	switch name {
	case "mix":
		if value < 0 || value > 1 {
			return paramRangeErr(name, value, 0, 1)
		}
		r.mix = value
	case "decay":
		if value < 0 || value > 1 {
			return paramRangeErr(name, value, 0, 1)
		}
		r.setDecay(value)
	default:
		return fmt.Errorf("reverb: unknown param %q", name)
	}
	return nil
}

func (r *Reverb) Params() map[string]float32 {
	return map[string]float32{"mix": r.mix, "decay": r.decay}
}

func (r *Reverb) SetBypassed(b bool) { r.bypassed = b }
func (r *Reverb) Bypassed() bool     { return r.bypassed }

func (r *Reverb) Reset() {
	for i := range r.preDelay {
		r.preDelay[i] = 0
	}
	for c := range r.combs {
		buf := r.combs[c].buf
		for i := range buf {
			buf[i] = 0
		}
	}
	for a := range r.allpass {
		line := r.allpass[a]
		for i := range line {
			line[i] = 0
		}
	}
}

func (r *Reverb) Process(buf []float32) {
	for i, in := range buf {
		delayed := r.preDelay[r.prePos]
		r.preDelay[r.prePos] = in
		r.prePos++
		if r.prePos == len(r.preDelay) {
			r.prePos = 0
		}

		var wet float32
		for c := range r.combs {
			comb := &r.combs[c]
			tap := comb.buf[comb.pos]
			comb.buf[comb.pos] = delayed + tap*comb.decay
			wet += tap
			comb.pos++
			if comb.pos == len(comb.buf) {
				comb.pos = 0
			}
		}

		for a := 0; a < 2; a++ {
			pos := r.allpassPos[a]
			line := r.allpass[a]
			tap := line[pos]
			line[pos] = wet + tap*ALLPASS_COEF
			wet = tap - wet
			pos++
			if pos == len(line) {
				pos = 0
			}
			r.allpassPos[a] = pos
		}

		wet *= REVERB_ATTENUATION
		buf[i] = in*(1.0-r.mix) + wet*r.mix
	}
}
