//go:build portaudio && !headless

// audio_backend_portaudio.go - PortAudio callback-model output backend

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

func init() {
	newPortAudioOutput = func(cfg Config, engine *Engine) (AudioOutput, error) {
		return NewPortAudioOutput(cfg, engine)
	}
}

// PortAudioOutput drives the engine from PortAudio's stream callback,
// the push model counterpart to the oto backend.
type PortAudioOutput struct {
	stream   *portaudio.Stream
	engine   *Engine
	channels int
	mono     []float32
	started  bool
	mutex    sync.Mutex
}

func NewPortAudioOutput(cfg Config, engine *Engine) (*PortAudioOutput, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	p := &PortAudioOutput{
		engine:   engine,
		channels: cfg.Channels,
		mono:     make([]float32, 4096),
	}

	stream, err := portaudio.OpenDefaultStream(
		0, cfg.Channels, float64(cfg.SampleRate), portaudio.FramesPerBufferUnspecified,
		p.callback)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	p.stream = stream
	return p, nil
}

// callback runs on the PortAudio device thread.
func (p *PortAudioOutput) callback(out []float32) {
	frames := len(out) / p.channels
	if len(p.mono) < frames {
		p.mono = make([]float32, frames)
	}
	mono := p.mono[:frames]
	p.engine.RenderBlock(mono)

	off := 0
	for _, s := range mono {
		for ch := 0; ch < p.channels; ch++ {
			out[off] = s
			off++
		}
	}
}

func (p *PortAudioOutput) Start() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.started || p.stream == nil {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return err
	}
	p.started = true
	return nil
}

func (p *PortAudioOutput) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.started && p.stream != nil {
		_ = p.stream.Stop()
		p.started = false
	}
}

func (p *PortAudioOutput) Close() error {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.stream != nil {
		err := p.stream.Close()
		p.stream = nil
		_ = portaudio.Terminate()
		return err
	}
	return nil
}
