// synth_engine.go - Render engine: command dispatch, signal chain, output

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Config fixes the audio format and polyphony at startup.
type Config struct {
	SampleRate int
	Channels   int // 1 mono, 2 stereo (mono render duplicated)
	Polyphony  int
	Backend    int
	Log        *EventLog
}

func (c *Config) fillDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = DEFAULT_SAMPLE_RATE
	}
	if c.Channels != 2 {
		c.Channels = 1
	}
	if c.Polyphony <= 0 {
		c.Polyphony = DEFAULT_POLYPHONY
	}
}

// Engine owns the signal chain. The render callback (RenderBlock) is the
// only code that touches pool, mixer, and chain; control methods talk to
// it exclusively through the command ring, so the hot path never takes a
// lock, allocates, or does I/O.
type Engine struct {
	cfg Config
	log *EventLog

	// Render-side state. Owned by the render callback after Start.
	pool  *VoicePool
	mixer *Mixer
	chain *EffectChain
	patch *Patch

	ring commandRing

	// Control-side state.
	ctlMu     sync.Mutex // serializes producers so the ring stays SPSC
	handleSeq atomic.Int64
	preset    Preset // last applied preset, source for ExportState
	output    AudioOutput

	running atomic.Bool
	dropped atomic.Uint64 // commands rejected by a full ring
}

// NewEngine builds an engine with the default preset applied and the
// output backend constructed but not started.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.fillDefaults()
	if cfg.Log == nil {
		return nil, fmt.Errorf("engine: Config.Log is required")
	}

	e := &Engine{
		cfg:   cfg,
		log:   cfg.Log,
		pool:  NewVoicePool(cfg.Polyphony, cfg.SampleRate),
		mixer: NewMixer(DEFAULT_MASTER_GAIN),
	}

	def := DefaultPreset()
	chain, err := NewEffectChain(cfg.SampleRate, def.Effects)
	if err != nil {
		return nil, err
	}
	e.chain = chain
	e.patch = def.patch()
	e.mixer.setGain(def.MasterGain)
	e.preset = def

	out, err := NewAudioOutput(cfg.Backend, cfg, e)
	if err != nil {
		return nil, err
	}
	e.output = out

	e.log.Infof("engine ready: %d Hz, %d ch, %d voices", cfg.SampleRate, cfg.Channels, cfg.Polyphony)
	return e, nil
}

// Start opens the output device and enables rendering.
func (e *Engine) Start() error {
	e.running.Store(true)
	return e.output.Start()
}

// Stop signals the render callback to go silent after the buffer it is
// producing, then stops the device.
func (e *Engine) Stop() {
	e.running.Store(false)
	e.output.Stop()
}

func (e *Engine) Close() error {
	e.Stop()
	return e.output.Close()
}

func (e *Engine) SampleRate() int { return e.cfg.SampleRate }
func (e *Engine) Channels() int   { return e.cfg.Channels }

// push enqueues a command, counting drops instead of blocking.
func (e *Engine) push(c Command) {
	if !e.ring.push(c) {
		e.dropped.Add(1)
	}
}

// NoteOn starts a note and returns its handle. Pitch and velocity are
// clamped to their valid ranges, never rejected.
func (e *Engine) NoteOn(pitch int, velocity float64) VoiceHandle {
	if pitch < MIN_PITCH {
		pitch = MIN_PITCH
	}
	if pitch > MAX_PITCH {
		pitch = MAX_PITCH
	}
	vel := clamp32(float32(velocity), MIN_VELOCITY, MAX_VELOCITY)

	h := VoiceHandle(e.handleSeq.Add(1))
	e.ctlMu.Lock()
	e.push(Command{Kind: cmdNoteOn, Pitch: uint8(pitch), Velocity: vel, Handle: h})
	e.ctlMu.Unlock()
	return h
}

// NoteOff releases the note started under the handle. Stale handles are
// a no-op.
func (e *Engine) NoteOff(h VoiceHandle) {
	e.ctlMu.Lock()
	e.push(Command{Kind: cmdNoteOff, Handle: h})
	e.ctlMu.Unlock()
}

// NoteOffPitch releases every gated voice playing the pitch. This is the
// event shape keyboards and sequencers produce.
func (e *Engine) NoteOffPitch(pitch int) {
	if pitch < MIN_PITCH || pitch > MAX_PITCH {
		return
	}
	e.ctlMu.Lock()
	e.push(Command{Kind: cmdNoteOffPitch, Pitch: uint8(pitch)})
	e.ctlMu.Unlock()
}

func (e *Engine) AllNotesOff() {
	e.ctlMu.Lock()
	e.push(Command{Kind: cmdAllNotesOff})
	e.ctlMu.Unlock()
}

// SetParam routes a single live parameter change. Voice targets touch
// the patch used by future note-ons; mixer and effect targets apply on
// the next render block.
func (e *Engine) SetParam(target ParamTarget, effect, name string, value float64) error {
	v := float32(value)
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	switch target {
	case TargetMixer:
		if name != "gain" {
			return fmt.Errorf("mixer: unknown param %q", name)
		}
		if v < 0 || v > 1 {
			return paramRangeErr(name, v, 0, 1)
		}
		e.preset.MasterGain = v
	case TargetEffect:
		found := false
		for i := range e.preset.Effects {
			if e.preset.Effects[i].Name == effect {
				if _, ok := e.preset.Effects[i].Params[name]; !ok {
					return fmt.Errorf("effect %s: unknown param %q", effect, name)
				}
				e.preset.Effects[i].Params[name] = v
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no effect %q in chain", effect)
		}
	case TargetVoice:
		if err := e.setVoiceParam(name, v); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown param target %d", target)
	}

	e.push(Command{Kind: cmdSetParam, Target: target, Effect: effect, Name: name, Value: v})
	return nil
}

// setVoiceParam range-checks the value and updates the control-side
// preset copy; the render side mirrors the change via the queued command.
func (e *Engine) setVoiceParam(name string, v float32) error {
	switch name {
	case "attack_ms", "decay_ms", "release_ms":
		if v < MIN_ENV_MS || v > MAX_ENV_MS {
			return paramRangeErr(name, v, MIN_ENV_MS, MAX_ENV_MS)
		}
	case "sustain_level":
		if v < 0 || v > 1 {
			return paramRangeErr(name, v, 0, 1)
		}
	case "fm_ratio":
		if v < 0 || v > 16 {
			return paramRangeErr(name, v, 0, 16)
		}
	case "fm_index":
		if v < 0 || v > 10 {
			return paramRangeErr(name, v, 0, 10)
		}
	default:
		return fmt.Errorf("voice: unknown param %q", name)
	}

	switch name {
	case "attack_ms":
		e.preset.Envelope.AttackMS = v
	case "decay_ms":
		e.preset.Envelope.DecayMS = v
	case "sustain_level":
		e.preset.Envelope.Sustain = v
	case "release_ms":
		e.preset.Envelope.ReleaseMS = v
	case "fm_ratio":
		e.preset.FMRatio = v
	case "fm_index":
		e.preset.FMIndex = v
	}
	return nil
}

// SetBypassed toggles one effect in the chain without rebuilding it.
func (e *Engine) SetBypassed(effect string, bypassed bool) error {
	v := float32(0)
	if bypassed {
		v = 1
	}
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	for i := range e.preset.Effects {
		if e.preset.Effects[i].Name == effect {
			e.preset.Effects[i].Bypassed = bypassed
			e.push(Command{Kind: cmdSetParam, Target: TargetEffect, Effect: effect, Name: "bypassed", Value: v})
			return nil
		}
	}
	return fmt.Errorf("no effect %q in chain", effect)
}

// ApplyPreset validates the preset, rebuilds the effect chain off the
// real-time path, and installs patch, chain, and master gain through a
// single ring command. A failing preset is never partially applied.
func (e *Engine) ApplyPreset(p Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	chain, err := NewEffectChain(e.cfg.SampleRate, p.Effects)
	if err != nil {
		return err
	}

	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	// Patch, chain, and master gain ride one command so the render side
	// sees either the whole preset or none of it. A full ring rejects
	// the install outright instead of applying a fragment.
	ok := e.ring.push(Command{
		Kind:  cmdInstallPreset,
		Patch: p.patch(),
		Chain: chain,
		Value: p.MasterGain,
	})
	if !ok {
		e.dropped.Add(1)
		return fmt.Errorf("command ring full, preset %q not applied", p.Name)
	}
	e.preset = p
	e.log.Infof("preset %q applied", p.Name)
	return nil
}

// ImportState applies an externally produced preset. Off-RT only.
func (e *Engine) ImportState(p Preset) error {
	return e.ApplyPreset(p)
}

// ExportState snapshots the current parameters as a preset. Off-RT only.
func (e *Engine) ExportState() Preset {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	out := e.preset
	out.Tags = append([]string(nil), e.preset.Tags...)
	out.Effects = make([]EffectConfig, len(e.preset.Effects))
	for i, cfg := range e.preset.Effects {
		params := make(map[string]float32, len(cfg.Params))
		for k, v := range cfg.Params {
			params[k] = v
		}
		out.Effects[i] = EffectConfig{Name: cfg.Name, Bypassed: cfg.Bypassed, Params: params}
	}
	return out
}

// DroppedCommands reports how many control commands were rejected by a
// full ring.
func (e *Engine) DroppedCommands() uint64 { return e.dropped.Load() }

// ActiveVoices reports the render-side voice count. Racy by nature, for
// display and tests only.
func (e *Engine) ActiveVoices() int { return e.pool.activeCount() }

// applyCommand executes one control command on the render thread.
func (e *Engine) applyCommand(c *Command) {
	switch c.Kind {
	case cmdNoteOn:
		e.pool.noteOn(c.Handle, c.Pitch, c.Velocity, e.patch)
	case cmdNoteOff:
		e.pool.noteOff(c.Handle)
	case cmdNoteOffPitch:
		e.pool.noteOffPitch(c.Pitch)
	case cmdAllNotesOff:
		e.pool.releaseAll()
	case cmdInstallPreset:
		e.patch = c.Patch
		e.chain = c.Chain
		e.mixer.setGain(c.Value)
	case cmdSetParam:
		switch c.Target {
		case TargetMixer:
			e.mixer.setGain(c.Value)
		case TargetVoice:
			e.applyVoiceParam(c.Name, c.Value)
		case TargetEffect:
			if fx := e.chain.find(c.Effect); fx != nil {
				if c.Name == "bypassed" {
					fx.SetBypassed(c.Value != 0)
				} else {
					// Validated on the control side; a stale chain
					// rejecting it is harmless.
					_ = fx.SetParam(c.Name, c.Value)
				}
			}
		}
	}
}

func (e *Engine) applyVoiceParam(name string, v float32) {
	switch name {
	case "attack_ms":
		e.patch.Env.AttackMS = v
	case "decay_ms":
		e.patch.Env.DecayMS = v
	case "sustain_level":
		e.patch.Env.Sustain = v
	case "release_ms":
		e.patch.Env.ReleaseMS = v
	case "fm_ratio":
		e.patch.FMRatio = v
	case "fm_index":
		e.patch.FMIndex = v
	}
}

// RenderBlock produces the next block of mono samples. This is the
// real-time callback: it drains pending commands, renders and mixes all
// voices, runs the effect chain, and guards the result. It must never
// block or allocate.
func (e *Engine) RenderBlock(buf []float32) {
	if !e.running.Load() {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	var c Command
	for e.ring.pop(&c) {
		e.applyCommand(&c)
	}

	e.pool.render(buf)
	e.mixer.process(buf)
	e.chain.Process(buf)

	// Any non-finite sample poisons downstream state; replace the whole
	// buffer with silence and report asynchronously. The effect chain
	// already processed the poisoned input, so its delay lines are
	// flushed too or the value would recirculate through feedback and
	// silence every block one delay period apart.
	for _, s := range buf {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			for i := range buf {
				buf[i] = 0
			}
			e.chain.Reset()
			e.log.Fault()
			return
		}
	}
}
