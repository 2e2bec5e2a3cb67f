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
	"sync"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/battery"
	"github.com/godbus/dbus/v5"
)

const (
	upowerDest          = "org.freedesktop.UPower"
	upowerDisplayDevice = "/org/freedesktop/UPower/devices/DisplayDevice"
	upowerDeviceIface   = "org.freedesktop.UPower.Device"

	// UPower device states.
	upowerStateCharging = 1
)

// UPower reads the combined display device from the UPower daemon on the system bus.
// Capacity reuses the properties read by the preceding Sample, so one tick costs
// one GetAll.
type UPower struct {
	obj dbus.BusObject
	now func() time.Time

	mu   sync.Mutex
	last map[string]dbus.Variant
}

func NewUPower(now func() time.Time) (*UPower, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &UPower{
		obj: conn.Object(upowerDest, dbus.ObjectPath(upowerDisplayDevice)),
		now: now,
	}, nil
}

func (u *UPower) properties(ctx context.Context) (map[string]dbus.Variant, error) {
	var props map[string]dbus.Variant
	call := u.obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.GetAll", 0, upowerDeviceIface)
	if call.Err != nil {
		return nil, call.Err
	}
	if err := call.Store(&props); err != nil {
		return nil, err
	}
	return props, nil
}

func (u *UPower) Sample(ctx context.Context) (battery.Sample, error) {
	props, err := u.properties(ctx)
	u.mu.Lock()
	u.last = props
	u.mu.Unlock()
	if err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: "failed to read UPower display device", Err: err}
	}
	return sampleFromProps(props, u.now())
}

func (u *UPower) Capacity(ctx context.Context) (battery.Capacity, error) {
	u.mu.Lock()
	props := u.last
	u.last = nil
	u.mu.Unlock()
	if props == nil {
		var err error
		if props, err = u.properties(ctx); err != nil {
			return battery.Capacity{}, err
		}
	}
	return capacityFromProps(props), nil
}

func sampleFromProps(props map[string]dbus.Variant, now time.Time) (battery.Sample, error) {
	var present bool
	if err := storeProp(props, "IsPresent", &present); err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: "UPower", Err: err}
	}
	if !present {
		return battery.Sample{}, &battery.SampleError{Reason: "UPower", Err: battery.ErrNoBattery}
	}
	var percent float64
	if err := storeProp(props, "Percentage", &percent); err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: "UPower", Err: err}
	}
	var state uint32
	if err := storeProp(props, "State", &state); err != nil {
		return battery.Sample{}, &battery.SampleError{Reason: "UPower", Err: err}
	}
	var timeToEmpty int64
	_ = storeProp(props, "TimeToEmpty", &timeToEmpty)

	return battery.Sample{
		Timestamp:     now,
		Percent:       percent,
		Charging:      state == upowerStateCharging,
		LifeRemaining: time.Duration(timeToEmpty) * time.Second,
	}, nil
}

func capacityFromProps(props map[string]dbus.Variant) battery.Capacity {
	var c battery.Capacity
	_ = storeProp(props, "EnergyFullDesign", &c.Design)
	_ = storeProp(props, "EnergyFull", &c.Full)
	return c
}

func storeProp(props map[string]dbus.Variant, name string, dest interface{}) error {
	v, ok := props[name]
	if !ok {
		return fmt.Errorf("property %s missing", name)
	}
	if err := dbus.Store([]interface{}{v.Value()}, dest); err != nil {
		return fmt.Errorf("property %s: %w", name, err)
	}
	return nil
}
