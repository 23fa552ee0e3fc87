// preset_store.go - Preset library on disk with change watching

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const presetExt = ".preset"

// PresetStore keeps named presets as JSON files in one directory. All
// operations run off the real-time path; apply-on-load goes through the
// engine's command queue like any other control input.
type PresetStore struct {
	dir     string
	log     *EventLog
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewPresetStore(dir string, log *EventLog) (*PresetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("preset store: %w", err)
	}
	return &PresetStore{dir: dir, log: log}, nil
}

func (s *PresetStore) path(name string) string {
	return filepath.Join(s.dir, name+presetExt)
}

// Save writes the preset under its name, stamping modification time and
// preserving creation time across re-saves.
func (s *PresetStore) Save(p *Preset) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	now := time.Now().Unix()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	p.ModifiedAt = now

	data, err := p.Marshal()
	if err != nil {
		return "", err
	}
	path := s.path(p.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save preset %q: %w", p.Name, err)
	}
	return path, nil
}

// Load reads and validates one preset by name.
func (s *PresetStore) Load(name string) (*Preset, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("load preset %q: %w", name, err)
	}
	return ParsePreset(data)
}

// List returns the stored preset names, sorted.
func (s *PresetStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), presetExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), presetExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *PresetStore) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil {
		return fmt.Errorf("delete preset %q: %w", name, err)
	}
	return nil
}

// Watch invokes onChange with each preset (re)written in the store
// directory, so presets edited on disk hot-reload. Invalid files are
// logged and skipped. Stop with Close.
func (s *PresetStore) Watch(onChange func(*Preset)) error {
	if s.watcher != nil {
		return fmt.Errorf("preset store: already watching")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("preset store: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("preset store: %w", err)
	}
	s.watcher = w
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				if !strings.HasSuffix(ev.Name, presetExt) {
					continue
				}
				name := strings.TrimSuffix(filepath.Base(ev.Name), presetExt)
				p, err := s.Load(name)
				if err != nil {
					s.log.Errorf("preset reload %q: %v", name, err)
					continue
				}
				s.log.Infof("preset %q changed on disk", name)
				onChange(p)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Errorf("preset watch: %v", err)
			}
		}
	}()
	return nil
}

func (s *PresetStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	s.watcher = nil
	return err
}
