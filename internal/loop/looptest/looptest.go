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

// Package looptest provides a manually advanced loop.Timers for tests.
package looptest

import (
	"sort"
	"sync"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/loop"
)

// Timers fires scheduled callbacks synchronously from Advance, in due order.
type Timers struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*task
}

type task struct {
	due     time.Time
	seq     int
	f       func()
	stopped bool
	owner   *Timers
}

func (t *task) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func New(start time.Time) *Timers {
	return &Timers{now: start}
}

func (ft *Timers) Now() time.Time {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.now
}

func (ft *Timers) AfterFunc(d time.Duration, f func()) loop.Task {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if d < 0 {
		d = 0
	}
	ft.seq++
	t := &task{due: ft.now.Add(d), seq: ft.seq, f: f, owner: ft}
	ft.tasks = append(ft.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every task that falls due,
// including tasks scheduled by callbacks along the way.
func (ft *Timers) Advance(d time.Duration) {
	ft.mu.Lock()
	end := ft.now.Add(d)
	ft.mu.Unlock()
	for {
		t := ft.next(end)
		if t == nil {
			break
		}
		t.f()
	}
	ft.mu.Lock()
	ft.now = end
	ft.mu.Unlock()
}

// next pops the earliest live task due by end and moves the clock to it.
func (ft *Timers) next(end time.Time) *task {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	live := ft.tasks[:0]
	for _, t := range ft.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	ft.tasks = live
	sort.SliceStable(ft.tasks, func(i, j int) bool {
		if ft.tasks[i].due.Equal(ft.tasks[j].due) {
			return ft.tasks[i].seq < ft.tasks[j].seq
		}
		return ft.tasks[i].due.Before(ft.tasks[j].due)
	})
	if len(ft.tasks) == 0 || ft.tasks[0].due.After(end) {
		return nil
	}
	t := ft.tasks[0]
	ft.tasks = ft.tasks[1:]
	t.stopped = true
	if t.due.After(ft.now) {
		ft.now = t.due
	}
	return t
}

// Pending is the number of tasks still scheduled.
func (ft *Timers) Pending() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	n := 0
	for _, t := range ft.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}
