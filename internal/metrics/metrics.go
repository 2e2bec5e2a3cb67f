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

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the alert service's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	percent      prometheus.Gauge
	charging     prometheus.Gauge
	band         prometheus.Gauge
	alertState   prometheus.Gauge
	alertsTotal  *prometheus.CounterVec
	sampleErrors prometheus.Counter
	playErrors   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		percent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_alert_percent",
			Help: "Battery charge from the last good sample.",
		}),
		charging: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_alert_charging",
			Help: "1 while the battery is charging.",
		}),
		band: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_alert_band",
			Help: "Charge band, 0 critical up to 4 full.",
		}),
		alertState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_alert_state",
			Help: "Alert state, 0 idle, 1 upper alerting, 2 lower alerting.",
		}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "battery_alert_sessions_total",
			Help: "Alert sessions started, by kind.",
		}, []string{"kind"}),
		sampleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battery_alert_sample_errors_total",
			Help: "Polls that produced no usable sample.",
		}),
		playErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battery_alert_play_errors_total",
			Help: "Sound device errors absorbed while playing alerts.",
		}),
	}
	reg.MustRegister(m.percent, m.charging, m.band, m.alertState, m.alertsTotal, m.sampleErrors, m.playErrors)
	return m
}

func (m *Metrics) ObserveSample(percent float64, charging bool) {
	if m == nil {
		return
	}
	m.percent.Set(percent)
	if charging {
		m.charging.Set(1)
	} else {
		m.charging.Set(0)
	}
}

func (m *Metrics) SetBand(band int) {
	if m == nil {
		return
	}
	m.band.Set(float64(band))
}

func (m *Metrics) SetAlertState(state int) {
	if m == nil {
		return
	}
	m.alertState.Set(float64(state))
}

func (m *Metrics) AlertStarted(kind string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) SampleError() {
	if m == nil {
		return
	}
	m.sampleErrors.Inc()
}

func (m *Metrics) PlayError() {
	if m == nil {
		return
	}
	m.playErrors.Inc()
}

// Serve exposes /metrics from gatherer on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("metrics server shutdown: %v", err)
		}
	}()

	log.Infof("Serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
