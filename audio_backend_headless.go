// audio_backend_headless.go - No-device backend for tests and offline render

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

// HeadlessOutput opens no device: callers drive Engine.RenderBlock
// themselves (tests, WAV export, CI).
type HeadlessOutput struct {
	started bool
}

func NewHeadlessOutput() *HeadlessOutput {
	return &HeadlessOutput{}
}

func (h *HeadlessOutput) Start() error {
	h.started = true
	return nil
}

func (h *HeadlessOutput) Stop() {
	h.started = false
}

func (h *HeadlessOutput) Close() error {
	h.started = false
	return nil
}

func (h *HeadlessOutput) IsStarted() bool {
	return h.started
}
