// synth_pool.go - Fixed-size voice pool with deterministic stealing

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

// VoicePool owns every Voice. All methods run on the render path, after
// commands have been dequeued, so no locking is needed and none of them
// allocate.
type VoicePool struct {
	voices     []*Voice
	sampleRate int
	now        uint64 // running sample counter, drives note age
}

func NewVoicePool(polyphony, sampleRate int) *VoicePool {
	if polyphony < 1 {
		polyphony = 1
	}
	if polyphony > MAX_POLYPHONY {
		polyphony = MAX_POLYPHONY
	}
	p := &VoicePool{
		voices:     make([]*Voice, polyphony),
		sampleRate: sampleRate,
	}
	for i := range p.voices {
		p.voices[i] = &Voice{noiseSR: NOISE_LFSR_SEED}
	}
	return p
}

// noteOn allocates a voice for the note, stealing one when the pool is
// saturated. Stealing is deterministic: the longest-releasing voice goes
// first, then the earliest note-on.
func (p *VoicePool) noteOn(h VoiceHandle, pitch uint8, velocity float32, patch *Patch) {
	v := p.findFree()
	if v == nil {
		v = p.steal()
	}
	if v == nil {
		// Cannot happen with a non-empty pool; drop the note per the
		// fail-silent contract.
		return
	}
	v.start(h, pitch, velocity, patch, p.sampleRate, p.now)
}

// noteOff releases the voice owning the handle. Unknown or stale handles
// are a no-op.
func (p *VoicePool) noteOff(h VoiceHandle) {
	for _, v := range p.voices {
		if v.active && v.handle == h {
			v.release()
			return
		}
	}
}

// noteOffPitch releases every gated voice playing the pitch.
func (p *VoicePool) noteOffPitch(pitch uint8) {
	for _, v := range p.voices {
		if v.active && v.gated && v.pitch == pitch {
			v.release()
		}
	}
}

// releaseAll gates off every active voice.
func (p *VoicePool) releaseAll() {
	for _, v := range p.voices {
		if v.active {
			v.release()
		}
	}
}

func (p *VoicePool) findFree() *Voice {
	for _, v := range p.voices {
		if !v.active {
			return v
		}
	}
	return nil
}

// steal picks the victim voice: a releasing voice with the earliest
// note-on if any exists, otherwise the earliest note-on overall.
func (p *VoicePool) steal() *Voice {
	var victim *Voice
	for _, v := range p.voices {
		if !v.active || v.env.phase != ENV_RELEASE {
			continue
		}
		if victim == nil || v.startAt < victim.startAt {
			victim = v
		}
	}
	if victim != nil {
		return victim
	}
	for _, v := range p.voices {
		if !v.active {
			continue
		}
		if victim == nil || v.startAt < victim.startAt {
			victim = v
		}
	}
	return victim
}

// activeCount reports how many voices are currently sounding.
func (p *VoicePool) activeCount() int {
	n := 0
	for _, v := range p.voices {
		if v.active {
			n++
		}
	}
	return n
}

// render sums all active voices into buf, velocity scaled. Voices whose
// envelope reached idle during the block are recycled before returning.
func (p *VoicePool) render(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
	for _, v := range p.voices {
		if !v.active {
			continue
		}
		vel := v.velocity
		for i := range buf {
			s := v.tick()
			if !v.active {
				break
			}
			buf[i] += s * vel
		}
	}
	p.now += uint64(len(buf))
}
