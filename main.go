// main.go - Command line entry point for the synthesis engine

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func boilerPlate() {
	fmt.Println("\nmusicPlatform synthesis engine")
	fmt.Println("https://github.com/gddickinson/musicPlatform")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	fs := flag.NewFlagSet("musicPlatform", flag.ExitOnError)
	backend := fs.String("backend", "oto", "audio backend: oto, portaudio or headless")
	rate := fs.Int("rate", DEFAULT_SAMPLE_RATE, "sample rate in Hz")
	poly := fs.Int("poly", DEFAULT_POLYPHONY, "maximum simultaneous voices")
	presetDir := fs.String("presets", "", "preset library directory")
	presetName := fs.String("preset", "", "preset to load at startup")
	script := fs.String("script", "", "Lua script to run")
	termPiano := fs.Bool("term", false, "play from the terminal keyboard")
	export := fs.String("export", "", "render to a WAV file instead of playing live")
	seconds := fs.Float64("seconds", 4.0, "duration of -export renders")
	bitDepth := fs.Int("bitdepth", 16, "WAV bit depth: 16 or 24")
	normalize := fs.Bool("normalize", false, "normalize -export renders to full scale")
	quiet := fs.Bool("quiet", false, "suppress the startup banner")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if !*quiet {
		boilerPlate()
	}

	if err := run(*backend, *rate, *poly, *presetDir, *presetName, *script,
		*termPiano, *export, *seconds, *bitDepth, *normalize); err != nil {
		fmt.Fprintf(os.Stderr, "musicPlatform: %v\n", err)
		os.Exit(1)
	}
}

func run(backendName string, rate, poly int, presetDir, presetName, script string,
	termPiano bool, export string, seconds float64, bitDepth int, normalize bool) error {
	log := NewEventLog(os.Stderr)
	defer log.Close()

	backend, err := ParseBackend(backendName)
	if err != nil {
		return err
	}
	if export != "" {
		// Offline renders pull samples directly, no device needed.
		backend = AUDIO_BACKEND_HEADLESS
	}

	engine, err := NewEngine(Config{
		SampleRate: rate,
		Polyphony:  poly,
		Backend:    backend,
		Log:        log,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	var store *PresetStore
	if presetDir != "" {
		store, err = NewPresetStore(presetDir, log)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if presetName != "" {
		if store == nil {
			return fmt.Errorf("-preset requires -presets")
		}
		p, err := store.Load(presetName)
		if err != nil {
			return err
		}
		if err := engine.ApplyPreset(*p); err != nil {
			return err
		}
	}

	seq := NewSequencer(engine, log)

	if export != "" {
		if script != "" {
			host := NewScriptHost(engine, seq, log)
			go func() {
				if err := host.DoFile(script); err != nil {
					log.Errorf("script: %v", err)
				}
			}()
		}
		return ExportWAV(context.Background(), engine, export, ExportOptions{
			Seconds:   seconds,
			BitDepth:  bitDepth,
			Normalize: normalize,
		})
	}

	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	if store != nil {
		// Edits to the loaded preset on disk take effect live.
		if err := store.Watch(func(p *Preset) {
			if presetName == "" || p.Name == presetName {
				if err := engine.ApplyPreset(*p); err != nil {
					log.Errorf("preset reload: %v", err)
				}
			}
		}); err != nil {
			return err
		}
	}

	if script != "" {
		host := NewScriptHost(engine, seq, log)
		return host.DoFile(script)
	}

	if termPiano {
		piano := NewTerminalPiano(engine, log)
		return piano.Run()
	}

	fmt.Println("running, Ctrl-C to quit")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	seq.Stop()
	return nil
}
