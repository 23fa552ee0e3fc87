//go:build headless

// audio_backend_oto_headless.go - oto backend stub for headless builds

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

// NewOtoOutput in a headless build silently degrades to the no-device
// backend so binaries built for CI keep the same wiring.
func NewOtoOutput(cfg Config, engine *Engine) (AudioOutput, error) {
	return NewHeadlessOutput(), nil
}
