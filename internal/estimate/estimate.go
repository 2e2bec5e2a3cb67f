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

package estimate

import (
	"fmt"
	"math"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/battery"
)

const (
	// WindowSize is how many charging samples are kept, about 25 seconds at a 5 second poll.
	WindowSize = 5

	// minPercentChange filters out clock and measurement noise.
	minPercentChange = 0.01
)

type timestampedPercent struct {
	timestamp time.Time
	percent   float64
}

// Estimate is a time-to-full estimate from the rolling window.
type Estimate struct {
	SecondsPerPercent float64
	RemainingSeconds  float64
}

// Estimator keeps a rolling window of charging samples.
type Estimator struct {
	window []timestampedPercent
}

func New() *Estimator {
	return &Estimator{window: make([]timestampedPercent, 0, WindowSize+1)}
}

// Observe adds a charging sample, dropping the oldest when the window is full.
// A sample that is not charging clears the window.
func (e *Estimator) Observe(s battery.Sample) {
	if !s.Charging {
		e.Clear()
		return
	}
	e.window = append(e.window, timestampedPercent{timestamp: s.Timestamp, percent: s.Percent})
	if len(e.window) > WindowSize {
		e.window = append(e.window[:0], e.window[1:]...)
	}
}

func (e *Estimator) Clear() {
	e.window = e.window[:0]
}

// TimeToFull estimates how long charging to 100% will take from currentPercent.
func (e *Estimator) TimeToFull(currentPercent float64) (Estimate, bool) {
	if len(e.window) < 2 {
		return Estimate{}, false
	}
	first := e.window[0]
	last := e.window[len(e.window)-1]
	delta := last.percent - first.percent
	if delta <= minPercentChange {
		return Estimate{}, false
	}
	elapsed := last.timestamp.Sub(first.timestamp).Seconds()
	secondsPerPercent := elapsed / delta
	return Estimate{
		SecondsPerPercent: secondsPerPercent,
		RemainingSeconds:  secondsPerPercent * math.Max(0, 100-currentPercent),
	}, true
}

// FormatDuration formats seconds as "1h 5m" when over an hour, otherwise "4m 40s".
func FormatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	if d < 0 {
		d = 0
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
