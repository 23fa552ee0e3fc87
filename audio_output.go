// audio_output.go - Output backend interface and selection

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import "fmt"

// Output backend selectors.
const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_PORTAUDIO
	AUDIO_BACKEND_HEADLESS
)

// AudioOutput is the boundary between the engine and the output device.
// Backends pull samples from Engine.RenderBlock on their own device
// thread.
type AudioOutput interface {
	Start() error
	Stop()
	Close() error
}

// newPortAudioOutput is installed by the portaudio backend's init when
// the build tag is present; without it the backend is unavailable.
var newPortAudioOutput func(cfg Config, engine *Engine) (AudioOutput, error)

func NewAudioOutput(backend int, cfg Config, engine *Engine) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		return NewOtoOutput(cfg, engine)
	case AUDIO_BACKEND_PORTAUDIO:
		if newPortAudioOutput == nil {
			return nil, fmt.Errorf("portaudio backend not built in (build with -tags portaudio)")
		}
		return newPortAudioOutput(cfg, engine)
	case AUDIO_BACKEND_HEADLESS:
		return NewHeadlessOutput(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %d", backend)
	}
}

// ParseBackend maps the command line spelling to a backend selector.
func ParseBackend(name string) (int, error) {
	switch name {
	case "oto", "":
		return AUDIO_BACKEND_OTO, nil
	case "portaudio":
		return AUDIO_BACKEND_PORTAUDIO, nil
	case "headless":
		return AUDIO_BACKEND_HEADLESS, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (oto, portaudio, headless)", name)
	}
}
