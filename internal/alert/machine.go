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

package alert

import (
	"time"

	"github.com/google/uuid"
)

// State of the alert state machine.
type State int

const (
	StateIdle State = iota
	StateUpperAlerting
	StateLowerAlerting
)

func (s State) String() string {
	switch s {
	case StateUpperAlerting:
		return "upper-alerting"
	case StateLowerAlerting:
		return "lower-alerting"
	default:
		return "idle"
	}
}

// Player is what the machine drives when a sound should start or stop.
type Player interface {
	Start(file string)
	Stop()
}

// Sounds are the resolved clips for each alert condition.
type Sounds struct {
	Full string
	Low  string
}

// Session is the span during which an alert condition is active and its sound may play.
type Session struct {
	ID        string
	Kind      Kind
	SoundFile string
	StartedAt time.Time
	Active    bool
}

// Transition describes what a Step did.
type Transition struct {
	From    State
	To      State
	Started bool // a new session was started and its sound requested
}

// Machine decides when alert sessions start and stop.
// It is not safe for concurrent use; the engine calls it from its event loop.
type Machine struct {
	sounds Sounds
	player Player
	now    func() time.Time

	state          State
	condition      Kind
	alreadyAlerted bool
	upperCount     int
	lowerCount     int
	session        Session
}

func NewMachine(sounds Sounds, player Player, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{
		sounds: sounds,
		player: player,
		now:    now,
	}
}

// Step applies one tick's desired alert kind.
func (m *Machine) Step(desired Kind, muted bool) Transition {
	tr := Transition{From: m.state}
	switch desired {
	case KindUpper:
		m.state = StateUpperAlerting
		m.upperCount++
		m.lowerCount = 0
		tr.Started = m.alert(KindUpper, m.sounds.Full, muted)
	case KindLower:
		m.state = StateLowerAlerting
		m.lowerCount++
		m.upperCount = 0
		tr.Started = m.alert(KindLower, m.sounds.Low, muted)
	default:
		m.state = StateIdle
		m.Reset()
		m.condition = KindNone
		m.session = Session{}
		m.player.Stop()
	}
	tr.To = m.state
	return tr
}

func (m *Machine) alert(kind Kind, file string, muted bool) bool {
	if m.condition != kind {
		m.condition = kind
		m.alreadyAlerted = false
		m.session = Session{}
	}
	if m.alreadyAlerted {
		return false
	}
	m.alreadyAlerted = true
	if muted {
		return false
	}
	m.player.Start(file)
	m.session = Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		SoundFile: file,
		StartedAt: m.now(),
		Active:    true,
	}
	return true
}

// Mute ends the current session. The state is kept so unmuting can resume it.
func (m *Machine) Mute() {
	m.session = Session{}
}

// Reset clears both counters and the already-alerted flag so the next alerting
// Step starts a new session.
func (m *Machine) Reset() {
	m.upperCount = 0
	m.lowerCount = 0
	m.alreadyAlerted = false
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Session() Session {
	return m.session
}

// Counts returns how many consecutive ticks each alert has been active for.
func (m *Machine) Counts() (upper, lower int) {
	return m.upperCount, m.lowerCount
}
