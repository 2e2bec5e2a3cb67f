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

package alerter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/TheCacophonyProject/battery-alert/internal/engine"
	"github.com/TheCacophonyProject/battery-alert/internal/service"
	"github.com/godbus/dbus/v5"
	"gopkg.in/yaml.v3"
)

func callService(method string, args ...interface{}) (*dbus.Call, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	obj := conn.Object(service.DbusName, service.DbusPath)
	call := obj.Call(service.DbusName+"."+method, 0, args...)
	if call.Err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, call.Err)
	}
	return call, nil
}

func getStatus() (engine.Status, error) {
	call, err := callService("Status")
	if err != nil {
		return engine.Status{}, err
	}
	var raw string
	if err := call.Store(&raw); err != nil {
		return engine.Status{}, err
	}
	var status engine.Status
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return engine.Status{}, fmt.Errorf("bad status from service: %w", err)
	}
	return status, nil
}

func printStatus(w io.Writer, asYAML bool) error {
	status, err := getStatus()
	if err != nil {
		return err
	}
	return writeStatus(w, status, asYAML)
}

func writeStatus(w io.Writer, status engine.Status, asYAML bool) error {
	if asYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(status)
	}
	_, err := io.WriteString(w, formatStatus(status))
	return err
}

func formatStatus(s engine.Status) string {
	var b strings.Builder
	fmt.Fprintln(&b, s.Title())
	if s.UpdatedAt.IsZero() {
		return b.String()
	}
	fmt.Fprintln(&b, s.StatusText)
	fmt.Fprintln(&b, s.TimeText)
	fmt.Fprintln(&b, s.HealthText)
	fmt.Fprintf(&b, "Upper limit: %g%%\n", s.UpperThreshold)
	fmt.Fprintf(&b, "Lower limit: %g%%\n", s.LowerThreshold)
	alert := s.AlertState
	if s.SoundActive {
		alert += ", playing " + s.SoundFile
	}
	if s.Muted {
		alert += " (muted)"
	}
	fmt.Fprintf(&b, "Alert: %s\n", alert)
	if s.LastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", s.LastError)
	}
	return b.String()
}

func setMute(muted bool) error {
	if _, err := callService("SetMute", muted); err != nil {
		return err
	}
	if muted {
		log.Info("Alerts muted")
	} else {
		log.Info("Alerts unmuted")
	}
	return nil
}

func stopSound() error {
	_, err := callService("StopSound")
	return err
}
