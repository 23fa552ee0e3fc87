//go:build !headless

// audio_backend_oto.go - oto v3 output backend

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoOutput feeds the device through oto's pull model: the device thread
// calls Read, which renders a block and serializes it as float32 LE
// frames. The engine pointer is atomic so Read never takes the setup
// mutex.
type OtoOutput struct {
	ctx      *oto.Context
	player   *oto.Player
	engine   atomic.Pointer[Engine]
	channels int
	mono     []float32 // preallocated render buffer
	started  bool
	mutex    sync.Mutex // setup and control only
}

func NewOtoOutput(cfg Config, engine *Engine) (*OtoOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	o := &OtoOutput{
		ctx:      ctx,
		channels: cfg.Channels,
		mono:     make([]float32, 4096),
	}
	o.engine.Store(engine)
	o.player = ctx.NewPlayer(o)
	return o, nil
}

func (o *OtoOutput) Read(p []byte) (int, error) {
	engine := o.engine.Load()
	if engine == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frames := len(p) / (4 * o.channels)
	if len(o.mono) < frames {
		o.mono = make([]float32, frames)
	}
	mono := o.mono[:frames]
	engine.RenderBlock(mono)

	// Interleave the mono render across the device channels.
	off := 0
	for _, s := range mono {
		bits := math.Float32bits(s)
		for ch := 0; ch < o.channels; ch++ {
			binary.LittleEndian.PutUint32(p[off:], bits)
			off += 4
		}
	}
	return off, nil
}

func (o *OtoOutput) Start() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
	return nil
}

func (o *OtoOutput) Stop() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.started && o.player != nil {
		o.player.Pause()
		o.started = false
	}
}

func (o *OtoOutput) Close() error {
	o.Stop()
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.player != nil {
		err := o.player.Close()
		o.player = nil
		return err
	}
	return nil
}
