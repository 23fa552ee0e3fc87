// synth_preset.go - Serializable parameter bundles and validation

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"encoding/json"
	"fmt"
)

// Preset is a named, serializable snapshot of voice and effect
// parameters. Presets are loaded and validated off the real-time path;
// apply installs them atomically for the next render cycle.
type Preset struct {
	Name       string   `json:"name"`
	Tags       []string `json:"tags,omitempty"`
	CreatedAt  int64    `json:"created_at,omitempty"`
	ModifiedAt int64    `json:"modified_at,omitempty"`

	Waveform   string         `json:"waveform"`
	Envelope   EnvParams      `json:"envelope"`
	FMRatio    float32        `json:"fm_ratio,omitempty"`
	FMIndex    float32        `json:"fm_index,omitempty"`
	MasterGain float32        `json:"master_gain"`
	Effects    []EffectConfig `json:"effects,omitempty"`
}

// PresetValidationError identifies the single offending field; a preset
// failing validation is never partially applied.
type PresetValidationError struct {
	Field  string
	Reason string
}

func (e *PresetValidationError) Error() string {
	return fmt.Sprintf("invalid preset: field %s: %s", e.Field, e.Reason)
}

var waveformNames = map[string]int{
	"sine":     WAVE_SINE,
	"square":   WAVE_SQUARE,
	"saw":      WAVE_SAW,
	"triangle": WAVE_TRIANGLE,
	"noise":    WAVE_NOISE,
	"fm":       WAVE_FM,
}

// WaveformName returns the preset spelling for a waveform constant.
func WaveformName(w int) string {
	for name, id := range waveformNames {
		if id == w {
			return name
		}
	}
	return "sine"
}

func fieldErr(field, reason string) error {
	return &PresetValidationError{Field: field, Reason: reason}
}

// Validate checks every field range before a preset can be applied.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return fieldErr("name", "must not be empty")
	}
	if _, ok := waveformNames[p.Waveform]; !ok {
		return fieldErr("waveform", fmt.Sprintf("unknown waveform %q", p.Waveform))
	}
	if p.Envelope.AttackMS < MIN_ENV_MS || p.Envelope.AttackMS > MAX_ENV_MS {
		return fieldErr("envelope.attack_ms", "out of range")
	}
	if p.Envelope.DecayMS < MIN_ENV_MS || p.Envelope.DecayMS > MAX_ENV_MS {
		return fieldErr("envelope.decay_ms", "out of range")
	}
	if p.Envelope.ReleaseMS < MIN_ENV_MS || p.Envelope.ReleaseMS > MAX_ENV_MS {
		return fieldErr("envelope.release_ms", "out of range")
	}
	if p.Envelope.Sustain < 0 || p.Envelope.Sustain > 1 {
		return fieldErr("envelope.sustain_level", "must be within [0,1]")
	}
	if p.FMRatio < 0 || p.FMRatio > 16 {
		return fieldErr("fm_ratio", "must be within [0,16]")
	}
	if p.FMIndex < 0 || p.FMIndex > 10 {
		return fieldErr("fm_index", "must be within [0,10]")
	}
	if p.MasterGain < 0 || p.MasterGain > 1 {
		return fieldErr("master_gain", "must be within [0,1]")
	}
	for i, cfg := range p.Effects {
		// Building a throwaway chain exercises the same name and range
		// checks apply would hit, without touching live state.
		if _, err := NewEffectChain(DEFAULT_SAMPLE_RATE, []EffectConfig{cfg}); err != nil {
			return fieldErr(fmt.Sprintf("effects[%d]", i), err.Error())
		}
	}
	return nil
}

// patch builds the render-side parameter snapshot.
func (p *Preset) patch() *Patch {
	return &Patch{
		Waveform: waveformNames[p.Waveform],
		Env:      p.Envelope,
		FMRatio:  p.FMRatio,
		FMIndex:  p.FMIndex,
	}
}

// Marshal renders the preset as indented JSON, the on-disk format.
func (p *Preset) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// ParsePreset decodes and validates a preset document.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// DefaultPreset is the engine's initial state: a plain saw patch with the
// full effect rack constructed but bypassed.
func DefaultPreset() Preset {
	return Preset{
		Name:     "init",
		Waveform: "saw",
		Envelope: EnvParams{
			AttackMS:  5,
			DecayMS:   80,
			Sustain:   0.7,
			ReleaseMS: 150,
		},
		FMRatio:    2.0,
		FMIndex:    1.0,
		MasterGain: DEFAULT_MASTER_GAIN,
		Effects: []EffectConfig{
			{Name: "delay", Bypassed: true, Params: map[string]float32{"time_ms": 300, "feedback": 0.35, "mix": 0.3}},
			{Name: "chorus", Bypassed: true, Params: map[string]float32{"rate": 1.0, "depth": 0.5, "mix": 0.5}},
			{Name: "tremolo", Bypassed: true, Params: map[string]float32{"rate": 5.0, "depth": 0.5}},
			{Name: "distortion", Bypassed: true, Params: map[string]float32{"drive": 1.0}},
			{Name: "reverb", Bypassed: true, Params: map[string]float32{"mix": 0.3, "decay": 0.6}},
		},
	}
}
