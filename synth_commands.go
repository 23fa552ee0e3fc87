// synth_commands.go - Typed control commands and the lock-free SPSC ring

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import "sync/atomic"

// Command kinds consumed by the render path. Control threads never touch
// render state directly; everything crosses through the ring.
type cmdKind uint8

const (
	cmdNoteOn cmdKind = iota
	cmdNoteOff
	cmdNoteOffPitch
	cmdAllNotesOff
	cmdSetParam
	cmdInstallPreset
)

// Parameter targets for cmdSetParam.
type ParamTarget uint8

const (
	TargetVoice ParamTarget = iota
	TargetMixer
	TargetEffect
)

// Command is a fixed-size value; pushing one onto the ring never
// allocates. Patch and Chain pointers reference objects fully built off
// the real-time path, so installing them is a plain pointer copy.
type Command struct {
	Kind     cmdKind
	Target   ParamTarget
	Pitch    uint8
	Velocity float32
	Handle   VoiceHandle
	Name     string // parameter or effect name for cmdSetParam
	Effect   string
	Value    float32
	Patch    *Patch
	Chain    *EffectChain // paired with Patch and Value in cmdInstallPreset
}

const commandRingSize = 1024 // power of two

// commandRing is a single-producer single-consumer ring. The engine
// serializes producers behind its control mutex; the render callback is
// the only consumer. Neither side blocks: a full ring rejects the push
// and the caller reports the drop.
type commandRing struct {
	buf  [commandRingSize]Command
	head atomic.Uint64 // next slot to read (consumer)
	tail atomic.Uint64 // next slot to write (producer)
}

func (r *commandRing) push(c Command) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= commandRingSize {
		return false
	}
	r.buf[tail&(commandRingSize-1)] = c
	r.tail.Store(tail + 1)
	return true
}

func (r *commandRing) pop(c *Command) bool {
	head := r.head.Load()
	if head == r.tail.Load() {
		return false
	}
	*c = r.buf[head&(commandRingSize-1)]
	r.head.Store(head + 1)
	return true
}
