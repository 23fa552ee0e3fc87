// synth_pool_test.go - Voice pool allocation and stealing tests

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"testing"
)

func poolPatch() *Patch {
	return &Patch{
		Waveform: WAVE_SINE,
		Env:      EnvParams{AttackMS: 1, DecayMS: 1, Sustain: 0.8, ReleaseMS: 50},
	}
}

func TestPool_PolyphonyIsHardLimit(t *testing.T) {
	const poly = 4
	p := NewVoicePool(poly, DEFAULT_SAMPLE_RATE)
	patch := poolPatch()

	for i := 0; i < poly; i++ {
		p.noteOn(VoiceHandle(i+1), uint8(60+i), 0.8, patch)
	}
	if got := p.activeCount(); got != poly {
		t.Fatalf("activeCount = %d, want %d", got, poly)
	}

	// One more note steals rather than exceeding the pool.
	p.noteOn(VoiceHandle(poly+1), 72, 0.8, patch)
	if got := p.activeCount(); got != poly {
		t.Errorf("activeCount after overflow = %d, want %d", got, poly)
	}
}

func TestPool_StealPrefersReleasingVoice(t *testing.T) {
	p := NewVoicePool(3, DEFAULT_SAMPLE_RATE)
	patch := poolPatch()

	p.noteOn(1, 60, 0.8, patch)
	advancePool(p, 100)
	p.noteOn(2, 64, 0.8, patch)
	advancePool(p, 100)
	p.noteOn(3, 67, 0.8, patch)
	advancePool(p, 100)

	// Release the middle note; it becomes the steal victim even though
	// voice 1 is older.
	p.noteOff(2)
	p.noteOn(4, 72, 0.8, patch)

	if v := findByHandle(p, 2); v != nil {
		t.Error("releasing voice was not stolen")
	}
	if v := findByHandle(p, 1); v == nil {
		t.Error("held voice 1 was stolen while a releasing voice existed")
	}
	if v := findByHandle(p, 4); v == nil {
		t.Error("new note did not get a voice")
	}
}

func TestPool_StealOldestWhenNoneReleasing(t *testing.T) {
	p := NewVoicePool(3, DEFAULT_SAMPLE_RATE)
	patch := poolPatch()

	p.noteOn(1, 60, 0.8, patch)
	advancePool(p, 100)
	p.noteOn(2, 64, 0.8, patch)
	advancePool(p, 100)
	p.noteOn(3, 67, 0.8, patch)
	advancePool(p, 100)

	p.noteOn(4, 72, 0.8, patch)
	if v := findByHandle(p, 1); v != nil {
		t.Error("oldest note survived the steal")
	}
	for _, h := range []VoiceHandle{2, 3, 4} {
		if v := findByHandle(p, h); v == nil {
			t.Errorf("handle %d missing after steal", h)
		}
	}
}

func TestPool_StealIsDeterministic(t *testing.T) {
	// Same sequence twice must steal the same victims.
	victims := func() []VoiceHandle {
		p := NewVoicePool(2, DEFAULT_SAMPLE_RATE)
		patch := poolPatch()
		p.noteOn(1, 60, 0.8, patch)
		advancePool(p, 50)
		p.noteOn(2, 62, 0.8, patch)
		advancePool(p, 50)
		p.noteOn(3, 64, 0.8, patch)
		advancePool(p, 50)
		p.noteOn(4, 65, 0.8, patch)

		var alive []VoiceHandle
		for _, v := range p.voices {
			if v.active {
				alive = append(alive, v.handle)
			}
		}
		return alive
	}
	a, b := victims(), victims()
	if len(a) != len(b) {
		t.Fatalf("different survivor counts: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("survivors differ: %v vs %v", a, b)
			break
		}
	}
}

func TestPool_NoteOffStaleHandleIsNoop(t *testing.T) {
	p := NewVoicePool(2, DEFAULT_SAMPLE_RATE)
	patch := poolPatch()
	p.noteOn(1, 60, 0.8, patch)

	p.noteOff(999)
	if got := p.activeCount(); got != 1 {
		t.Errorf("stale noteOff changed activeCount to %d", got)
	}

	// After the voice is stolen the old handle is stale too.
	p.noteOn(2, 62, 0.8, patch)
	p.noteOn(3, 64, 0.8, patch) // steals handle 1's voice
	p.noteOff(1)
	if got := p.activeCount(); got != 2 {
		t.Errorf("activeCount = %d after stale release, want 2", got)
	}
}

func TestPool_NoteOffPitchReleasesAllMatching(t *testing.T) {
	p := NewVoicePool(4, DEFAULT_SAMPLE_RATE)
	patch := poolPatch()
	p.noteOn(1, 60, 0.8, patch)
	p.noteOn(2, 60, 0.8, patch)
	p.noteOn(3, 64, 0.8, patch)

	p.noteOffPitch(60)
	for _, v := range p.voices {
		if !v.active {
			continue
		}
		if v.pitch == 60 && v.gated {
			t.Error("a voice at pitch 60 is still gated")
		}
		if v.pitch == 64 && !v.gated {
			t.Error("pitch 64 was released by mistake")
		}
	}
}

func TestPool_RenderSilenceWhenIdle(t *testing.T) {
	p := NewVoicePool(4, DEFAULT_SAMPLE_RATE)
	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = 42 // stale garbage the render must clear
	}
	p.render(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, s)
		}
	}
}

func TestPool_ReleaseAll(t *testing.T) {
	p := NewVoicePool(4, DEFAULT_SAMPLE_RATE)
	patch := poolPatch()
	for i := 0; i < 4; i++ {
		p.noteOn(VoiceHandle(i+1), uint8(60+i), 0.8, patch)
	}
	p.releaseAll()
	for _, v := range p.voices {
		if v.gated {
			t.Error("a voice is still gated after releaseAll")
		}
	}
	// Voices eventually drain to silence.
	buf := make([]float32, DEFAULT_SAMPLE_RATE/4)
	p.render(buf)
	if got := p.activeCount(); got != 0 {
		t.Errorf("activeCount = %d after release tail, want 0", got)
	}
}

// advancePool renders a few samples so note ages diverge.
func advancePool(p *VoicePool, samples int) {
	buf := make([]float32, samples)
	p.render(buf)
}

func findByHandle(p *VoicePool, h VoiceHandle) *Voice {
	for _, v := range p.voices {
		if v.active && v.handle == h {
			return v
		}
	}
	return nil
}
