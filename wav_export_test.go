// wav_export_test.go - Offline WAV render tests

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestExportWAV_HeaderAndLength(t *testing.T) {
	e := testEngine(t)
	e.NoteOn(69, 0.8)

	path := filepath.Join(t.TempDir(), "out.wav")
	err := ExportWAV(context.Background(), e, path, ExportOptions{
		Seconds:  0.5,
		BitDepth: 16,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 44 {
		t.Fatalf("file too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[12:16]) != "fmt " {
		t.Fatal("missing RIFF/WAVE/fmt markers")
	}
	if got := binary.LittleEndian.Uint16(data[20:]); got != 1 {
		t.Errorf("format tag = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != DEFAULT_SAMPLE_RATE {
		t.Errorf("sample rate = %d, want %d", got, DEFAULT_SAMPLE_RATE)
	}
	if got := binary.LittleEndian.Uint16(data[34:]); got != 16 {
		t.Errorf("bit depth = %d, want 16", got)
	}

	channels := int(binary.LittleEndian.Uint16(data[22:]))
	wantFrames := DEFAULT_SAMPLE_RATE / 2
	dataLen := int(binary.LittleEndian.Uint32(data[40:]))
	if dataLen != wantFrames*channels*2 {
		t.Errorf("data chunk = %d bytes, want %d", dataLen, wantFrames*channels*2)
	}
	if len(data) != 44+dataLen {
		t.Errorf("file size = %d, want %d", len(data), 44+dataLen)
	}

	// A sounding note must leave nonzero PCM in the payload.
	var energy int64
	for i := 44; i+1 < len(data); i += 2 {
		v := int16(binary.LittleEndian.Uint16(data[i:]))
		if v < 0 {
			v = -v
		}
		energy += int64(v)
	}
	if energy == 0 {
		t.Error("exported audio is all zeros despite an active note")
	}
}

func TestExportWAV_StartsStoppedEngine(t *testing.T) {
	// An engine that was never started still renders: the export loop
	// owns the render path and flips the running flag itself.
	log := NewEventLog(io.Discard)
	defer log.Close()
	e, err := NewEngine(Config{
		SampleRate: DEFAULT_SAMPLE_RATE,
		Polyphony:  8,
		Backend:    AUDIO_BACKEND_HEADLESS,
		Log:        log,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	e.NoteOn(69, 0.8)

	path := filepath.Join(t.TempDir(), "coldstart.wav")
	if err := ExportWAV(context.Background(), e, path, ExportOptions{Seconds: 0.25, BitDepth: 16}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var energy int64
	for i := 44; i+1 < len(data); i += 2 {
		v := int16(binary.LittleEndian.Uint16(data[i:]))
		if v < 0 {
			v = -v
		}
		energy += int64(v)
	}
	if energy == 0 {
		t.Fatal("cold-start export produced silence")
	}

	// The export leaves the engine the way it found it.
	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = 7
	}
	e.RenderBlock(buf)
	for _, s := range buf {
		if s != 0 {
			t.Fatal("engine left running after a cold-start export")
		}
	}
}

func TestExportWAV_24Bit(t *testing.T) {
	e := testEngine(t)
	e.NoteOn(60, 0.8)

	path := filepath.Join(t.TempDir(), "out24.wav")
	if err := ExportWAV(context.Background(), e, path, ExportOptions{Seconds: 0.1, BitDepth: 24}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint16(data[34:]); got != 24 {
		t.Errorf("bit depth = %d, want 24", got)
	}
	channels := int(binary.LittleEndian.Uint16(data[22:]))
	wantData := (DEFAULT_SAMPLE_RATE / 10) * channels * 3
	if got := int(binary.LittleEndian.Uint32(data[40:])); got != wantData {
		t.Errorf("data chunk = %d bytes, want %d", got, wantData)
	}
}

func TestExportWAV_RejectsBadOptions(t *testing.T) {
	e := testEngine(t)
	path := filepath.Join(t.TempDir(), "never.wav")

	if err := ExportWAV(context.Background(), e, path, ExportOptions{Seconds: 0, BitDepth: 16}); err == nil {
		t.Error("zero duration accepted")
	}
	if err := ExportWAV(context.Background(), e, path, ExportOptions{Seconds: 1, BitDepth: 8}); err == nil {
		t.Error("8-bit depth accepted")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rejected export left a file behind")
	}
}

func TestExportWAV_CancelledContext(t *testing.T) {
	e := testEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "cancelled.wav")
	if err := ExportWAV(ctx, e, path, ExportOptions{Seconds: 10, BitDepth: 16}); err == nil {
		t.Fatal("cancelled export reported success")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cancelled export left a file behind")
	}
}

func TestExportWAV_NormalizeHitsFullScale(t *testing.T) {
	e := testEngine(t)
	// Keep the mix quiet so normalization has headroom to reclaim.
	if err := e.SetParam(TargetMixer, "", "gain", 0.1); err != nil {
		t.Fatal(err)
	}
	e.NoteOn(69, 0.5)

	path := filepath.Join(t.TempDir(), "norm.wav")
	if err := ExportWAV(context.Background(), e, path, ExportOptions{Seconds: 0.25, BitDepth: 16, Normalize: true}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var maxAbs int
	for i := 44; i+1 < len(data); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(data[i:])))
		if v < 0 {
			v = -v
		}
		if v > maxAbs {
			maxAbs = v
		}
	}
	if maxAbs < 32000 {
		t.Errorf("normalized peak = %d, want near 32767", maxAbs)
	}
}
