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

package service

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/engine"
	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"
)

const (
	DbusName     = "org.cacophony.BatteryAlert"
	DbusPath     = "/org/cacophony/BatteryAlert"
	StatusSignal = DbusName + ".Status"

	callTimeout = 5 * time.Second
)

// Controller is the engine as seen from D-Bus goroutines.
type Controller interface {
	Status(ctx context.Context) (engine.Status, error)
	SetMute(ctx context.Context, muted bool) error
	StopSound(ctx context.Context) error
}

// Service is the exported D-Bus object.
type Service struct {
	conn *dbus.Conn
	ctl  Controller
	log  *logging.Logger
}

// Start claims the bus name and exports the service.
func Start(ctl Controller, log *logging.Logger) (*Service, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	reply, err := conn.RequestName(DbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errors.New("name already taken")
	}

	s := &Service{conn: conn, ctl: ctl, log: log}
	if err := conn.Export(s, DbusPath, DbusName); err != nil {
		return nil, err
	}
	if err := conn.Export(genIntrospectable(s), DbusPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, err
	}
	log.Infof("Exported %s on %s", DbusName, DbusPath)
	return s, nil
}

// Status returns the engine status as JSON.
func (s *Service) Status() (string, *dbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	status, err := s.ctl.Status(ctx)
	if err != nil {
		return "", dbusErr(err)
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return "", dbusErr(err)
	}
	return string(raw), nil
}

func (s *Service) SetMute(muted bool) *dbus.Error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if err := s.ctl.SetMute(ctx, muted); err != nil {
		s.log.Warnf("SetMute(%t): %v", muted, err)
		return dbusErr(err)
	}
	return nil
}

func (s *Service) StopSound() *dbus.Error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if err := s.ctl.StopSound(ctx); err != nil {
		return dbusErr(err)
	}
	return nil
}

// EmitStatus sends the status signal: percent, charging, band, alert state and muted.
func (s *Service) EmitStatus(status engine.Status) error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Emit(dbus.ObjectPath(DbusPath), StatusSignal, signalBody(status)...)
}

func signalBody(status engine.Status) []interface{} {
	return []interface{}{status.Percent, status.Charging, status.Band, status.AlertState, status.Muted}
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    DbusName,
			Methods: introspect.Methods(v),
			Signals: []introspect.Signal{{
				Name: "Status",
				Args: []introspect.Arg{
					{Name: "percent", Type: "d"},
					{Name: "charging", Type: "b"},
					{Name: "band", Type: "s"},
					{Name: "alertState", Type: "s"},
					{Name: "muted", Type: "b"},
				},
			}},
		}},
	}
	return introspect.NewIntrospectable(node)
}

func dbusErr(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return &dbus.Error{
		Name: DbusName + "." + getCallerName(),
		Body: []interface{}{err.Error()},
	}
}

func getCallerName() string {
	pcs := make([]uintptr, 1)
	if runtime.Callers(3, pcs) == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	funcNames := strings.Split(frame.Function, ".")
	return funcNames[len(funcNames)-1]
}
