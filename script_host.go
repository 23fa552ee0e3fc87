// script_host.go - Lua automation surface over the engine

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ScriptHost exposes the engine to Lua programs under a `synth` table.
// Scripts run on a control goroutine and drive the engine exactly like
// any other collaborator: notes and parameter changes go through the
// command queue, presets are applied whole.
//
//	synth.note_on(60, 1.0)        -> handle
//	synth.note_off(handle)
//	synth.note_off_pitch(60)
//	synth.sleep_ms(250)
//	synth.set_param("voice", "", "attack_ms", 10)
//	synth.set_param("effect", "delay", "mix", 0.4)
//	synth.bypass("reverb", false)
//	synth.tempo(128)
//	synth.pattern({ {60,1.0}, {}, {63,0.8}, {} , ... })
//	synth.play(beats)
//	synth.note("C4")              -> 60
type ScriptHost struct {
	engine *Engine
	seq    *Sequencer
	log    *EventLog
}

func NewScriptHost(engine *Engine, seq *Sequencer, log *EventLog) *ScriptHost {
	return &ScriptHost{engine: engine, seq: seq, log: log}
}

// DoFile runs a script from disk.
func (h *ScriptHost) DoFile(path string) error {
	L := h.newState()
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// DoString runs an inline script.
func (h *ScriptHost) DoString(src string) error {
	L := h.newState()
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (h *ScriptHost) newState() *lua.LState {
	L := lua.NewState()

	synth := L.NewTable()
	L.SetGlobal("synth", synth)

	L.SetField(synth, "note_on", L.NewFunction(func(L *lua.LState) int {
		pitch := L.CheckInt(1)
		vel := float64(L.OptNumber(2, 1.0))
		handle := h.engine.NoteOn(pitch, vel)
		L.Push(lua.LNumber(handle))
		return 1
	}))

	L.SetField(synth, "note_off", L.NewFunction(func(L *lua.LState) int {
		h.engine.NoteOff(VoiceHandle(L.CheckInt64(1)))
		return 0
	}))

	L.SetField(synth, "note_off_pitch", L.NewFunction(func(L *lua.LState) int {
		h.engine.NoteOffPitch(L.CheckInt(1))
		return 0
	}))

	L.SetField(synth, "all_notes_off", L.NewFunction(func(L *lua.LState) int {
		h.engine.AllNotesOff()
		return 0
	}))

	L.SetField(synth, "sleep_ms", L.NewFunction(func(L *lua.LState) int {
		time.Sleep(time.Duration(L.CheckNumber(1)) * time.Millisecond)
		return 0
	}))

	L.SetField(synth, "set_param", L.NewFunction(func(L *lua.LState) int {
		target, err := parseTarget(L.CheckString(1))
		if err != nil {
			L.RaiseError("%v", err)
		}
		effect := L.CheckString(2)
		name := L.CheckString(3)
		value := float64(L.CheckNumber(4))
		if err := h.engine.SetParam(target, effect, name, value); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))

	L.SetField(synth, "bypass", L.NewFunction(func(L *lua.LState) int {
		if err := h.engine.SetBypassed(L.CheckString(1), L.CheckBool(2)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))

	L.SetField(synth, "tempo", L.NewFunction(func(L *lua.LState) int {
		if err := h.seq.SetTempo(float64(L.CheckNumber(1))); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))

	L.SetField(synth, "pattern", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		var p Pattern
		for i := 0; i < PatternSteps; i++ {
			entry := tbl.RawGetInt(i + 1)
			step, ok := entry.(*lua.LTable)
			if !ok || step.Len() == 0 {
				continue
			}
			pitch, ok := step.RawGetInt(1).(lua.LNumber)
			if !ok {
				continue
			}
			vel := lua.LNumber(1.0)
			if v, ok := step.RawGetInt(2).(lua.LNumber); ok {
				vel = v
			}
			p.Steps[i] = Step{On: true, Pitch: int(pitch), Velocity: float64(vel)}
		}
		h.seq.SetPattern(p)
		return 0
	}))

	// play(beats) runs the sequencer for the given number of quarter
	// notes, blocking the script.
	L.SetField(synth, "play", L.NewFunction(func(L *lua.LState) int {
		beats := float64(L.OptNumber(1, 4))
		h.seq.Start()
		time.Sleep(time.Duration(beats * 60.0 / h.seq.Tempo() * float64(time.Second)))
		h.seq.Stop()
		return 0
	}))

	L.SetField(synth, "note", L.NewFunction(func(L *lua.LState) int {
		n, err := NameToMidi(L.CheckString(1))
		if err != nil {
			L.RaiseError("%v", err)
		}
		L.Push(lua.LNumber(n))
		return 1
	}))

	return L
}

func parseTarget(s string) (ParamTarget, error) {
	switch s {
	case "voice":
		return TargetVoice, nil
	case "mixer":
		return TargetMixer, nil
	case "effect":
		return TargetEffect, nil
	default:
		return 0, fmt.Errorf("unknown target %q (voice, mixer, effect)", s)
	}
}
