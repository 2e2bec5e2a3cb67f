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
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheCacophonyProject/battery-alert/internal/battery"
	"github.com/TheCacophonyProject/battery-alert/internal/config"
	"github.com/TheCacophonyProject/battery-alert/internal/engine"
	"github.com/TheCacophonyProject/battery-alert/internal/loop"
	"github.com/TheCacophonyProject/battery-alert/internal/metrics"
	"github.com/TheCacophonyProject/battery-alert/internal/power"
	"github.com/TheCacophonyProject/battery-alert/internal/service"
	"github.com/TheCacophonyProject/battery-alert/internal/sound"
	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

func runService(configDir string) error {
	conf, resolver, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source, err := newSource(conf)
	if err != nil {
		return err
	}
	device, err := sound.NewExecDevice(conf.PlayerCommand)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if conf.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, conf.MetricsAddr, reg, log); err != nil {
				log.Errorf("Metrics server failed: %v", err)
			}
		}()
	}

	l := loop.New(clock.New())
	var svc *service.Service
	eng, err := engine.New(conf, engine.Options{
		Source:   source,
		Device:   device,
		Resolver: resolver,
		Timers:   l,
		Log:      log,
		Metrics:  m,
		Report:   eventclient.AddEvent,
		OnStatus: func(s engine.Status) {
			log.Infof("%s, %s, alert %s", s.Title(), s.Band, s.AlertState)
			if err := svc.EmitStatus(s); err != nil {
				log.Warnf("Failed to send status signal: %v", err)
			}
		},
	})
	if err != nil {
		return err
	}

	svc, err = service.Start(&loopController{loop: l, engine: eng}, log)
	if err != nil {
		return err
	}

	go func() {
		diff, err := config.WaitForChange(ctx, configDir, conf, log)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warnf("Not watching config for changes: %v", err)
			}
			return
		}
		log.Debug("Config diff: ", diff)
		log.Info("Config changed. Exiting to allow systemctl to restart service.")
		cancel()
	}()

	l.Post(func() { eng.Start(ctx) })
	l.Run(ctx)
	// The loop has stopped so nothing else touches the engine.
	eng.Shutdown()
	return nil
}

func newSource(conf config.Config) (battery.Source, error) {
	switch conf.Source {
	case config.SourceSysfs:
		log.Infof("Reading battery '%s' from sysfs", conf.SysfsDevice)
		return power.NewSysfs(power.DefaultSysfsRoot, conf.SysfsDevice, nil), nil
	default:
		log.Info("Reading battery from UPower")
		return power.NewUPower(nil)
	}
}

// loopController runs D-Bus requests on the engine's loop.
type loopController struct {
	loop   *loop.Loop
	engine *engine.Engine
}

func (c *loopController) Status(ctx context.Context) (engine.Status, error) {
	result := make(chan engine.Status, 1)
	if err := c.loop.Call(ctx, func() { result <- c.engine.Status() }); err != nil {
		return engine.Status{}, err
	}
	return <-result, nil
}

func (c *loopController) SetMute(ctx context.Context, muted bool) error {
	result := make(chan error, 1)
	if err := c.loop.Call(ctx, func() { result <- c.engine.SetMuted(ctx, muted) }); err != nil {
		return err
	}
	err := <-result
	var se *battery.SampleError
	if errors.As(err, &se) {
		// Unmuting worked, only the sample taken straight after failed.
		log.Warnf("Unmuted but battery sample failed: %v", err)
		return nil
	}
	return err
}

func (c *loopController) StopSound(ctx context.Context) error {
	return c.loop.Call(ctx, c.engine.StopSound)
}
