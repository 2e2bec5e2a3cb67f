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
	"github.com/TheCacophonyProject/battery-alert/internal/battery"
)

// Band is the classification of a charge percentage against the thresholds.
type Band int

const (
	BandCritical Band = iota
	BandMidLow
	BandMidHigh
	BandHigh
	BandFull
)

func (b Band) String() string {
	switch b {
	case BandCritical:
		return "critical"
	case BandMidLow:
		return "mid-low"
	case BandMidHigh:
		return "mid-high"
	case BandHigh:
		return "high"
	case BandFull:
		return "full"
	default:
		return "unknown"
	}
}

// Color is the colour hint the presentation layer uses for the band.
func (b Band) Color() string {
	switch b {
	case BandFull, BandHigh:
		return "green"
	case BandMidHigh:
		return "yellowgreen"
	case BandMidLow:
		return "orange"
	default:
		return "red"
	}
}

// Kind is the alert condition a sample asks for.
type Kind int

const (
	KindNone Kind = iota
	KindUpper
	KindLower
)

func (k Kind) String() string {
	switch k {
	case KindUpper:
		return "upper"
	case KindLower:
		return "lower"
	default:
		return "none"
	}
}

// Thresholds are the configured upper and lower alert levels, lower < upper.
type Thresholds struct {
	Upper float64
	Lower float64
}

// Mid is the point between the thresholds splitting the mid-high and mid-low bands.
func (t Thresholds) Mid() float64 {
	return (t.Upper + t.Lower) / 2
}

// Classify maps a percentage to its band. Reaching upper counts as high while
// reaching lower counts as critical, so the first matching rule wins.
func Classify(percent float64, t Thresholds) Band {
	switch {
	case percent >= 100:
		return BandFull
	case percent >= t.Upper:
		return BandHigh
	case percent > t.Mid():
		return BandMidHigh
	case percent > t.Lower:
		return BandMidLow
	default:
		return BandCritical
	}
}

// Evaluate classifies the sample and returns the alert kind it asks for.
func Evaluate(s battery.Sample, t Thresholds) (Band, Kind) {
	band := Classify(s.Percent, t)
	switch {
	case (band == BandFull || band == BandHigh) && s.Charging:
		return band, KindUpper
	case band == BandCritical && !s.Charging:
		return band, KindLower
	default:
		return band, KindNone
	}
}
