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

package battery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoBattery is returned by a Source when the platform reports no battery.
var ErrNoBattery = errors.New("no battery detected")

// Sample is one reading of the power state.
type Sample struct {
	Timestamp time.Time
	Percent   float64
	Charging  bool

	// LifeRemaining is the platform's own time-to-empty estimate, zero when unknown.
	LifeRemaining time.Duration
}

// Validate checks the sample can be classified.
func (s Sample) Validate() error {
	if math.IsNaN(s.Percent) || s.Percent < 0 || s.Percent > 100 {
		return &SampleError{Reason: fmt.Sprintf("percent %v is out of range", s.Percent)}
	}
	if s.Timestamp.IsZero() {
		return &SampleError{Reason: "sample has no timestamp"}
	}
	return nil
}

// Source yields one sample per poll.
type Source interface {
	Sample(ctx context.Context) (Sample, error)
}

// CapacitySource is implemented by sources that can also report pack capacity.
type CapacitySource interface {
	Capacity(ctx context.Context) (Capacity, error)
}

// Capacity holds the design and current full-charge capacity in the platform's units.
type Capacity struct {
	Design float64
	Full   float64
}

// Health returns full capacity as a percentage of the design capacity.
func (c Capacity) Health() (float64, bool) {
	if c.Design <= 0 || c.Full <= 0 {
		return 0, false
	}
	return c.Full / c.Design * 100, true
}

// SampleError means a single poll produced no usable sample. Polling should carry on.
type SampleError struct {
	Reason string
	Err    error
}

func (e *SampleError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// AsSampleError returns err as a *SampleError, wrapping it if needed.
func AsSampleError(err error) *SampleError {
	if err == nil {
		return nil
	}
	var se *SampleError
	if errors.As(err, &se) {
		return se
	}
	return &SampleError{Reason: "failed to read battery", Err: err}
}
