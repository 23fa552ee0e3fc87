// event_log.go - Explicit logging handle with an async real-time-safe path

/*
musicPlatform - real-time audio synthesis engine
https://github.com/gddickinson/musicPlatform
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// EventLog replaces the original platform's process-wide singleton
// logger. The application entry point creates one and hands it to the
// components that need it; nothing reaches for hidden global state.
//
// Control-path code logs through Infof/Errorf. The render callback must
// never format or write, so it reports through Fault, which only bumps
// an atomic counter; a drain goroutine notices and does the writing.
type EventLog struct {
	mu     sync.Mutex
	logger *log.Logger

	faults        atomic.Uint64
	faultsDrained uint64

	stop chan struct{}
	done chan struct{}
}

func NewEventLog(w io.Writer) *EventLog {
	l := &EventLog{
		logger: log.New(w, "synth: ", log.LstdFlags|log.Lmicroseconds),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.drain()
	return l
}

func (l *EventLog) Infof(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf(format, args...)
}

func (l *EventLog) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("ERROR: "+format, args...)
}

// Fault records a render-path fault. Safe to call from the audio
// callback: one atomic increment, no locks, no allocation.
func (l *EventLog) Fault() {
	l.faults.Add(1)
}

// FaultCount reports the total number of render faults seen.
func (l *EventLog) FaultCount() uint64 {
	return l.faults.Load()
}

// drain periodically reports accumulated render faults off the real-time
// path. Polling keeps the audio side free of channels and wakeups.
func (l *EventLog) drain() {
	defer close(l.done)
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			l.report()
			return
		case <-t.C:
			l.report()
		}
	}
}

func (l *EventLog) report() {
	n := l.faults.Load()
	if n > l.faultsDrained {
		l.Errorf("render: %d buffer(s) clamped to silence (NaN/Inf)", n-l.faultsDrained)
		l.faultsDrained = n
	}
}

func (l *EventLog) Close() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
	<-l.done
}

func (l *EventLog) String() string {
	return fmt.Sprintf("EventLog(faults=%d)", l.faults.Load())
}
