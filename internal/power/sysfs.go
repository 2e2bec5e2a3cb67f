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

package power

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/battery"
)

// DefaultSysfsRoot is where the kernel lists power supplies.
const DefaultSysfsRoot = "/sys/class/power_supply"

// Sysfs reads a battery from the kernel power_supply class.
type Sysfs struct {
	dir string
	now func() time.Time
}

func NewSysfs(root, device string, now func() time.Time) *Sysfs {
	if root == "" {
		root = DefaultSysfsRoot
	}
	if now == nil {
		now = time.Now
	}
	return &Sysfs{dir: filepath.Join(root, device), now: now}
}

func (s *Sysfs) Sample(ctx context.Context) (battery.Sample, error) {
	if err := ctx.Err(); err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: "sysfs", Err: err}
	}
	if _, err := os.Stat(s.dir); err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: s.dir, Err: battery.ErrNoBattery}
	}
	// Some drivers have no present file, they only list batteries that exist.
	if present, err := s.readInt("present"); err == nil && present == 0 {
		return battery.Sample{}, &battery.SampleError{Reason: s.dir, Err: battery.ErrNoBattery}
	}

	capacity, err := s.readInt("capacity")
	if err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: "failed to read capacity", Err: err}
	}
	status, err := s.readString("status")
	if err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: "failed to read status", Err: err}
	}

	sample := battery.Sample{
		Timestamp: s.now(),
		Percent:   float64(capacity),
		Charging:  status == "Charging",
	}
	if status == "Discharging" {
		sample.LifeRemaining = s.lifeRemaining()
	}
	return sample, nil
}

// lifeRemaining estimates time to empty from the present draw, zero when unknown.
func (s *Sysfs) lifeRemaining() time.Duration {
	now, errNow := s.readInt("energy_now")
	rate, errRate := s.readInt("power_now")
	if errNow != nil || errRate != nil {
		now, errNow = s.readInt("charge_now")
		rate, errRate = s.readInt("current_now")
	}
	if errNow != nil || errRate != nil || rate <= 0 {
		return 0
	}
	hours := float64(now) / float64(rate)
	return time.Duration(hours * float64(time.Hour))
}

func (s *Sysfs) Capacity(ctx context.Context) (battery.Capacity, error) {
	design, errDesign := s.readInt("energy_full_design")
	full, errFull := s.readInt("energy_full")
	if errDesign != nil || errFull != nil {
		design, errDesign = s.readInt("charge_full_design")
		full, errFull = s.readInt("charge_full")
	}
	if errDesign != nil {
		return battery.Capacity{}, errDesign
	}
	if errFull != nil {
		return battery.Capacity{}, errFull
	}
	return battery.Capacity{Design: float64(design), Full: float64(full)}, nil
}

func (s *Sysfs) readString(name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *Sysfs) readInt(name string) (int64, error) {
	str, err := s.readString(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s '%s': %w", name, str, err)
	}
	return v, nil
}
