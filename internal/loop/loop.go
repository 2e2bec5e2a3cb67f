/*
battery-alert - Raises sound alerts from battery thresholds
Copyright (C) 2025, The Cacophony Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrClosed is returned when work is given to a loop that has stopped.
var ErrClosed = errors.New("event loop closed")

// Task is a delayed callback that can be cancelled.
type Task interface {
	// Stop cancels the task. It returns false if the task already ran or was stopped.
	Stop() bool
}

// Timers schedules callbacks. Callbacks never run concurrently with each other.
type Timers interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Task
}

// Loop runs posted callbacks one at a time on a single goroutine.
type Loop struct {
	clock clock.Clock
	queue chan func()
	done  chan struct{}
	ended atomic.Bool
}

func New(c clock.Clock) *Loop {
	if c == nil {
		c = clock.New()
	}
	return &Loop{
		clock: c,
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run processes callbacks until ctx is done. Callbacks posted afterwards are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		if l.ended.CompareAndSwap(false, true) {
			close(l.done)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-l.queue:
			select {
			case <-ctx.Done():
				return
			default:
			}
			f()
		}
	}
}

// Post queues f to run on the loop. It returns false if the loop has stopped.
func (l *Loop) Post(f func()) bool {
	if l.ended.Load() {
		return false
	}
	select {
	case l.queue <- f:
		return true
	case <-l.done:
		return false
	}
}

const (
	callPending int32 = iota
	callRunning
	callAbandoned
)

// Call runs f on the loop and waits for it to finish. If ctx ends before f
// starts, f never runs and ctx.Err() is returned. Once f has started Call
// waits for it.
func (l *Loop) Call(ctx context.Context, f func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		if ctx.Err() != nil || !state.CompareAndSwap(callPending, callRunning) {
			state.Store(callAbandoned)
			return
		}
		f()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		if state.CompareAndSwap(callPending, callAbandoned) {
			return ctx.Err()
		}
		<-finished
	}
	if state.Load() != callRunning {
		return ctx.Err()
	}
	return nil
}

func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// AfterFunc runs f on the loop once d has passed.
func (l *Loop) AfterFunc(d time.Duration, f func()) Task {
	t := &task{}
	t.timer = l.clock.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

type task struct {
	timer   *clock.Timer
	stopped atomic.Bool
}

func (t *task) Stop() bool {
	first := t.stopped.CompareAndSwap(false, true)
	if t.timer != nil {
		t.timer.Stop()
	}
	return first
}
