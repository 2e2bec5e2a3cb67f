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

package engine

import (
	"fmt"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/alert"
	"github.com/TheCacophonyProject/battery-alert/internal/battery"
	"github.com/TheCacophonyProject/battery-alert/internal/estimate"
)

// NoEstimate is shown when no time estimate is available.
const NoEstimate = "--"

// Status is what the presentation layer shows after each tick.
type Status struct {
	UpdatedAt      time.Time `json:"updatedAt" yaml:"updated-at"`
	Percent        float64   `json:"percent" yaml:"percent"`
	Charging       bool      `json:"charging" yaml:"charging"`
	Band           string    `json:"band" yaml:"band"`
	Color          string    `json:"color" yaml:"color"`
	StatusColor    string    `json:"statusColor" yaml:"status-color"`
	PercentText    string    `json:"percentText" yaml:"percent-text"`
	StatusText     string    `json:"statusText" yaml:"status-text"`
	TimeText       string    `json:"timeText" yaml:"time-text"`
	HealthText     string    `json:"healthText" yaml:"health-text"`
	UpperThreshold float64   `json:"upperThreshold" yaml:"upper-threshold"`
	LowerThreshold float64   `json:"lowerThreshold" yaml:"lower-threshold"`
	AlertState     string    `json:"alertState" yaml:"alert-state"`
	SessionID      string    `json:"sessionId,omitempty" yaml:"session-id,omitempty"`
	SoundActive    bool      `json:"soundActive" yaml:"sound-active"`
	SoundFile      string    `json:"soundFile,omitempty" yaml:"sound-file,omitempty"`
	Muted          bool      `json:"muted" yaml:"muted"`
	UpperCount     int       `json:"upperCount" yaml:"upper-count"`
	LowerCount     int       `json:"lowerCount" yaml:"lower-count"`
	LastError      string    `json:"lastError,omitempty" yaml:"last-error,omitempty"`
}

// Title is the one line summary, e.g. "87% | Charging".
func (s Status) Title() string {
	if s.UpdatedAt.IsZero() {
		return "Initializing..."
	}
	status := "Discharging"
	if s.Charging {
		status = "Charging"
	}
	return fmt.Sprintf("%s | %s", s.PercentText, status)
}

// differs reports a change worth telling listeners about.
func (s Status) differs(o Status) bool {
	return s.Band != o.Band ||
		s.Charging != o.Charging ||
		s.AlertState != o.AlertState ||
		s.SessionID != o.SessionID ||
		s.Muted != o.Muted ||
		s.LastError != o.LastError
}

func percentText(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}

func statusText(charging bool) string {
	if charging {
		return "Status: Charging"
	}
	return "Status: Discharging"
}

func statusColor(band alert.Band, charging bool) string {
	if charging {
		return "blue"
	}
	return band.Color()
}

func timeText(sample battery.Sample, est *estimate.Estimator) string {
	if sample.Charging {
		if e, ok := est.TimeToFull(sample.Percent); ok {
			return "Time to Full: " + estimate.FormatDuration(e.RemainingSeconds)
		}
		return NoEstimate
	}
	if sample.LifeRemaining > 0 {
		return "Time Remaining: " + estimate.FormatDuration(sample.LifeRemaining.Seconds())
	}
	return NoEstimate
}

func healthText(c battery.Capacity, ok bool) string {
	if ok {
		if health, valid := c.Health(); valid {
			return fmt.Sprintf("Battery Health: %.1f%%", health)
		}
	}
	return "Battery Health: N/A"
}
