// synth_commands_test.go - Command ring behavior tests

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"sync"
	"testing"
)

func TestCommandRing_FIFO(t *testing.T) {
	var r commandRing
	for i := 0; i < 10; i++ {
		if !r.push(Command{Kind: cmdNoteOn, Pitch: uint8(i)}) {
			t.Fatalf("push %d rejected on an empty ring", i)
		}
	}
	var c Command
	for i := 0; i < 10; i++ {
		if !r.pop(&c) {
			t.Fatalf("pop %d failed", i)
		}
		if c.Pitch != uint8(i) {
			t.Errorf("pop %d returned pitch %d", i, c.Pitch)
		}
	}
	if r.pop(&c) {
		t.Error("pop succeeded on a drained ring")
	}
}

func TestCommandRing_FullRejectsWithoutBlocking(t *testing.T) {
	var r commandRing
	for i := 0; i < commandRingSize; i++ {
		if !r.push(Command{}) {
			t.Fatalf("push %d rejected before capacity", i)
		}
	}
	if r.push(Command{}) {
		t.Error("push succeeded on a full ring")
	}

	var c Command
	if !r.pop(&c) {
		t.Fatal("pop failed on a full ring")
	}
	if !r.push(Command{}) {
		t.Error("push rejected after a slot freed up")
	}
}

func TestCommandRing_WrapAround(t *testing.T) {
	var r commandRing
	var c Command
	// Push/pop past the ring size several times over.
	for i := 0; i < commandRingSize*3; i++ {
		if !r.push(Command{Handle: VoiceHandle(i)}) {
			t.Fatalf("push %d rejected", i)
		}
		if !r.pop(&c) {
			t.Fatalf("pop %d failed", i)
		}
		if c.Handle != VoiceHandle(i) {
			t.Errorf("iteration %d popped handle %d", i, c.Handle)
		}
	}
}

func TestCommandRing_SingleProducerSingleConsumer(t *testing.T) {
	var r commandRing
	const total = 100000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if r.push(Command{Handle: VoiceHandle(i)}) {
				i++
			}
		}
	}()

	go func() {
		defer wg.Done()
		var c Command
		next := VoiceHandle(0)
		for next < total {
			if !r.pop(&c) {
				continue
			}
			if c.Handle != next {
				t.Errorf("popped handle %d, want %d", c.Handle, next)
				return
			}
			next++
		}
	}()

	wg.Wait()
}
