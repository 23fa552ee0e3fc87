// wav_export.go - Offline render to PCM WAV

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ExportOptions controls offline rendering.
type ExportOptions struct {
	Seconds   float64
	BitDepth  int  // 16 or 24
	Normalize bool // scale peaks to full scale before quantizing
}

const exportBlock = 1024

// ExportWAV renders the engine's output for the requested duration into
// a PCM WAV file. The engine must be driven headlessly (not attached to
// a started device backend) so this loop is the only caller of
// RenderBlock. An engine that was never started is started for the
// duration of the render and stopped again; RenderBlock emits silence
// otherwise. Cancellation is checked between blocks; nothing is written
// until the render completes.
func ExportWAV(ctx context.Context, engine *Engine, path string, opts ExportOptions) error {
	if opts.Seconds <= 0 {
		return fmt.Errorf("export: duration must be positive")
	}
	if opts.BitDepth != 16 && opts.BitDepth != 24 {
		return fmt.Errorf("export: unsupported bit depth %d (16 or 24)", opts.BitDepth)
	}

	if !engine.running.Load() {
		if err := engine.Start(); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer engine.Stop()
	}

	totalFrames := int(opts.Seconds * float64(engine.SampleRate()))
	samples := make([]float32, 0, totalFrames)
	block := make([]float32, exportBlock)

	for len(samples) < totalFrames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n := totalFrames - len(samples)
		if n > exportBlock {
			n = exportBlock
		}
		engine.RenderBlock(block[:n])
		samples = append(samples, block[:n]...)
	}

	if opts.Normalize {
		normalize(samples)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	w := bufio.NewWriter(f)

	if err := writeWAV(w, samples, engine.SampleRate(), engine.Channels(), opts.BitDepth); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("export: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}

// normalize scales the buffer so the loudest peak sits at full scale.
// Silence is left alone.
func normalize(samples []float32) {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak < 1e-9 {
		return
	}
	scale := 1.0 / peak
	for i := range samples {
		samples[i] *= scale
	}
}

// writeWAV emits a RIFF/WAVE header and the quantized sample data. The
// mono render is duplicated across channels, matching live playback.
func writeWAV(w io.Writer, samples []float32, sampleRate, channels, bitDepth int) error {
	bytesPerSample := bitDepth / 8
	dataLen := len(samples) * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	var hdr [44]byte
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(36+dataLen))
	copy(hdr[8:], "WAVE")
	copy(hdr[12:], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16)
	binary.LittleEndian.PutUint16(hdr[20:], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:], uint16(bitDepth))
	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], uint32(dataLen))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var frame [8]byte
	for _, s := range samples {
		s = clamp32(s, MIN_SAMPLE, MAX_SAMPLE)
		switch bitDepth {
		case 16:
			v := int16(s * 32767)
			for ch := 0; ch < channels; ch++ {
				binary.LittleEndian.PutUint16(frame[:], uint16(v))
				if _, err := w.Write(frame[:2]); err != nil {
					return err
				}
			}
		case 24:
			v := int32(s * 8388607)
			for ch := 0; ch < channels; ch++ {
				frame[0] = byte(v)
				frame[1] = byte(v >> 8)
				frame[2] = byte(v >> 16)
				if _, err := w.Write(frame[:3]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
