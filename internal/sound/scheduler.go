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

package sound

import (
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	"github.com/TheCacophonyProject/battery-alert/internal/loop"
)

const (
	// RepeatInterval is the delay between the start of one play and the next.
	RepeatInterval = 2 * time.Second

	// MaxDuration is how long a session may keep repeating before it stops itself.
	MaxDuration = 30 * time.Second
)

// Device opens sound files for playback.
type Device interface {
	Open(file string) (Clip, error)
}

// Clip is one opened sound file.
type Clip interface {
	Play() error
	Stop() error
	Close() error
}

type session struct {
	file      string
	clip      Clip
	startedAt time.Time
	task      loop.Task
}

// Scheduler plays at most one sound at a time, repeating it every RepeatInterval
// until stopped or MaxDuration has passed.
// All methods must be called from the loop that runs the timers.
type Scheduler struct {
	timers loop.Timers
	device Device
	log    *logging.Logger

	// OnPlayError is called with every absorbed device error.
	OnPlayError func(file string, err error)

	current *session
}

func NewScheduler(timers loop.Timers, device Device, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewLogger("info")
	}
	return &Scheduler{timers: timers, device: device, log: log}
}

// Start plays file now and keeps repeating it. Starting the file that is already
// playing does nothing, starting another file replaces the current session.
func (s *Scheduler) Start(file string) {
	if s.current != nil {
		if s.current.file == file {
			return
		}
		s.Stop()
	}
	clip, err := s.device.Open(file)
	if err != nil {
		s.playError(file, err)
		return
	}
	sess := &session{file: file, clip: clip, startedAt: s.timers.Now()}
	s.current = sess
	s.log.Debugf("Starting alert sound '%s'", file)
	s.fire(sess)
}

func (s *Scheduler) fire(sess *session) {
	if s.current != sess {
		return
	}
	if s.timers.Now().Sub(sess.startedAt) >= MaxDuration {
		s.log.Debugf("Alert sound '%s' reached %s, stopping", sess.file, MaxDuration)
		s.Stop()
		return
	}
	if err := sess.clip.Stop(); err != nil {
		s.playError(sess.file, err)
	}
	if err := sess.clip.Play(); err != nil {
		s.playError(sess.file, err)
	}
	sess.task = s.timers.AfterFunc(RepeatInterval, func() { s.fire(sess) })
}

// Stop ends the current session. It is safe to call when nothing is playing.
func (s *Scheduler) Stop() {
	sess := s.current
	if sess == nil {
		return
	}
	s.current = nil
	if sess.task != nil {
		sess.task.Stop()
	}
	if err := sess.clip.Stop(); err != nil {
		s.playError(sess.file, err)
	}
	if err := sess.clip.Close(); err != nil {
		s.playError(sess.file, err)
	}
}

// Active reports whether a session is playing.
func (s *Scheduler) Active() bool {
	return s.current != nil
}

// File is the file of the current session, empty when none.
func (s *Scheduler) File() string {
	if s.current == nil {
		return ""
	}
	return s.current.file
}

func (s *Scheduler) playError(file string, err error) {
	s.log.Warnf("Alert sound '%s': %v", file, err)
	if s.OnPlayError != nil {
		s.OnPlayError(file, err)
	}
}
