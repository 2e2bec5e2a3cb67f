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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/alert"
	"github.com/TheCacophonyProject/battery-alert/internal/battery"
	"github.com/TheCacophonyProject/battery-alert/internal/config"
	"github.com/TheCacophonyProject/battery-alert/internal/estimate"
	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	"github.com/TheCacophonyProject/battery-alert/internal/loop"
	"github.com/TheCacophonyProject/battery-alert/internal/metrics"
	"github.com/TheCacophonyProject/battery-alert/internal/sound"
	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"
)

// ErrStopped is returned by Tick after Shutdown.
var ErrStopped = errors.New("engine stopped")

const (
	EventFullAlert = "batteryFullAlert"
	EventLowAlert  = "batteryLowAlert"
)

// Options are the capabilities the engine is built from. Source, Device,
// Resolver and Timers are required.
type Options struct {
	Source   battery.Source
	Device   sound.Device
	Resolver config.FileResolver
	Timers   loop.Timers
	Log      *logging.Logger
	Metrics  *metrics.Metrics

	// Report sends an event when an alert session starts.
	Report func(eventclient.Event) error
	// OnStatus is called when the band, alert state, mute or error changes.
	OnStatus func(Status)
	// OnError is called with every failed tick.
	OnError func(error)
}

// Engine polls the battery and raises alerts. It is not safe for concurrent use,
// every method must run on the loop that owns Options.Timers.
type Engine struct {
	opts       Options
	log        *logging.Logger
	interval   time.Duration
	thresholds alert.Thresholds

	scheduler *sound.Scheduler
	machine   *alert.Machine
	estimator *estimate.Estimator

	muted    bool
	status   Status
	pollTask loop.Task
	stopped  bool
}

// New checks the config and resolves both sounds. A *config.Error is returned
// when the config can not be used.
func New(cfg config.Config, opts Options) (*Engine, error) {
	if opts.Source == nil || opts.Device == nil || opts.Resolver == nil || opts.Timers == nil {
		return nil, errors.New("engine needs a source, sound device, file resolver and timers")
	}
	if err := cfg.Validate(opts.Resolver); err != nil {
		return nil, err
	}
	full, _ := opts.Resolver.Resolve(cfg.FullBatterySound)
	low, _ := opts.Resolver.Resolve(cfg.LowBatterySound)

	log := opts.Log
	if log == nil {
		log = logging.NewLogger("info")
	}
	e := &Engine{
		opts:       opts,
		log:        log,
		interval:   cfg.PollInterval,
		thresholds: cfg.Thresholds(),
		estimator:  estimate.New(),
		muted:      cfg.MuteAlerts,
	}
	e.scheduler = sound.NewScheduler(opts.Timers, opts.Device, log)
	e.scheduler.OnPlayError = func(string, error) { opts.Metrics.PlayError() }
	e.machine = alert.NewMachine(alert.Sounds{Full: full, Low: low}, e.scheduler, opts.Timers.Now)
	e.status = Status{
		TimeText:       NoEstimate,
		HealthText:     healthText(battery.Capacity{}, false),
		UpperThreshold: e.thresholds.Upper,
		LowerThreshold: e.thresholds.Lower,
		AlertState:     alert.StateIdle.String(),
		Muted:          e.muted,
	}
	log.Infof("Sounds: full '%s', low '%s'", full, low)
	return e, nil
}

// Start runs a tick now and then every poll interval until Shutdown.
func (e *Engine) Start(ctx context.Context) {
	if e.stopped {
		return
	}
	e.poll(ctx)
}

func (e *Engine) poll(ctx context.Context) {
	if e.stopped || ctx.Err() != nil {
		return
	}
	tickCtx, cancel := context.WithTimeout(ctx, e.interval)
	_ = e.Tick(tickCtx)
	cancel()
	if e.stopped {
		return
	}
	e.pollTask = e.opts.Timers.AfterFunc(e.interval, func() { e.poll(ctx) })
}

// Tick takes one sample and drives the alert machine from it. A sample that can
// not be read or used returns a *battery.SampleError and changes nothing else.
func (e *Engine) Tick(ctx context.Context) error {
	if e.stopped {
		return ErrStopped
	}
	sample, err := e.opts.Source.Sample(ctx)
	if err == nil {
		err = sample.Validate()
	}
	if err != nil {
		return e.tickFailed(battery.AsSampleError(err))
	}
	e.opts.Metrics.ObserveSample(sample.Percent, sample.Charging)

	e.estimator.Observe(sample)
	band, kind := alert.Evaluate(sample, e.thresholds)
	e.opts.Metrics.SetBand(int(band))
	tr := e.machine.Step(kind, e.muted)
	if tr.From != tr.To {
		e.log.Infof("Battery at %.1f%% (%s), alert state %s -> %s", sample.Percent, band, tr.From, tr.To)
	}
	if tr.Started {
		e.alertStarted(sample, kind)
	}

	capacity, haveCapacity := e.capacity(ctx)
	s := e.snapshot()
	s.UpdatedAt = sample.Timestamp
	s.Percent = sample.Percent
	s.Charging = sample.Charging
	s.Band = band.String()
	s.Color = band.Color()
	s.StatusColor = statusColor(band, sample.Charging)
	s.PercentText = percentText(sample.Percent)
	s.StatusText = statusText(sample.Charging)
	s.TimeText = timeText(sample, e.estimator)
	s.HealthText = healthText(capacity, haveCapacity)
	s.LastError = ""
	e.publish(s)
	return nil
}

func (e *Engine) tickFailed(err *battery.SampleError) error {
	e.log.Warnf("Skipping battery sample: %v", err)
	e.opts.Metrics.SampleError()
	if e.opts.OnError != nil {
		e.opts.OnError(err)
	}
	s := e.snapshot()
	s.LastError = err.Error()
	e.publish(s)
	return err
}

func (e *Engine) capacity(ctx context.Context) (battery.Capacity, bool) {
	cs, ok := e.opts.Source.(battery.CapacitySource)
	if !ok {
		return battery.Capacity{}, false
	}
	c, err := cs.Capacity(ctx)
	if err != nil {
		e.log.Debugf("Battery capacity unavailable: %v", err)
		return battery.Capacity{}, false
	}
	return c, true
}

func (e *Engine) alertStarted(sample battery.Sample, kind alert.Kind) {
	session := e.machine.Session()
	e.opts.Metrics.AlertStarted(kind.String())

	eventType := EventLowAlert
	if kind == alert.KindUpper {
		eventType = EventFullAlert
	}
	e.log.Infof("%s: battery at %.1f%%, playing '%s'", eventType, sample.Percent, session.SoundFile)
	if e.opts.Report == nil {
		return
	}
	event := eventclient.Event{
		Timestamp: session.StartedAt,
		Type:      eventType,
		Details: map[string]interface{}{
			"percent":        sample.Percent,
			"charging":       sample.Charging,
			"upperThreshold": e.thresholds.Upper,
			"lowerThreshold": e.thresholds.Lower,
			"sound":          session.SoundFile,
			"sessionId":      session.ID,
		},
	}
	if err := e.opts.Report(event); err != nil {
		e.log.Error("Error sending alert event: ", err)
	}
}

// snapshot is the current status with the alert fields refreshed.
func (e *Engine) snapshot() Status {
	s := e.status
	session := e.machine.Session()
	s.AlertState = e.machine.State().String()
	s.SessionID = session.ID
	s.SoundActive = e.scheduler.Active()
	s.SoundFile = e.scheduler.File()
	s.Muted = e.muted
	s.UpperCount, s.LowerCount = e.machine.Counts()
	return s
}

func (e *Engine) publish(s Status) {
	prev := e.status
	e.status = s
	e.opts.Metrics.SetAlertState(int(e.machine.State()))
	if e.opts.OnStatus != nil && s.differs(prev) {
		e.opts.OnStatus(s)
	}
}

// Status returns the status from the last tick with live alert fields.
func (e *Engine) Status() Status {
	return e.snapshot()
}

// SetMuted mutes or unmutes alerts. Muting silences any sound that is playing.
// Unmuting clears the already-alerted state and ticks straight away so an
// ongoing condition alerts again.
func (e *Engine) SetMuted(ctx context.Context, muted bool) error {
	if e.stopped {
		return ErrStopped
	}
	if muted == e.muted {
		return nil
	}
	e.muted = muted
	if muted {
		e.log.Info("Alerts muted")
		e.scheduler.Stop()
		e.machine.Mute()
		e.publish(e.snapshot())
		return nil
	}
	e.log.Info("Alerts unmuted")
	e.machine.Reset()
	if err := e.Tick(ctx); err != nil {
		return fmt.Errorf("tick after unmute: %w", err)
	}
	return nil
}

// Muted reports whether alerts are muted.
func (e *Engine) Muted() bool {
	return e.muted
}

// StopSound silences the current alert without muting future ones.
func (e *Engine) StopSound() {
	e.scheduler.Stop()
}

// Shutdown stops polling and any sound. Nothing runs afterwards.
func (e *Engine) Shutdown() {
	if e.stopped {
		return
	}
	e.stopped = true
	if e.pollTask != nil {
		e.pollTask.Stop()
	}
	e.scheduler.Stop()
	e.log.Info("Battery alert engine stopped")
}
