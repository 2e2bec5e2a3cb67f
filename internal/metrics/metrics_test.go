package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSample(42.5, true)
	assert.Equal(t, 42.5, testutil.ToFloat64(m.percent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.charging))
	m.ObserveSample(41, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.charging))

	m.SetBand(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.band))
	m.SetAlertState(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertState))

	m.AlertStarted("lower")
	m.AlertStarted("lower")
	m.AlertStarted("upper")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertsTotal.WithLabelValues("lower")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsTotal.WithLabelValues("upper")))

	m.SampleError()
	m.PlayError()
	m.PlayError()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sampleErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.playErrors))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSample(10, false)
		m.SetBand(0)
		m.SetAlertState(0)
		m.AlertStarted("upper")
		m.SampleError()
		m.PlayError()
	})
}

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSample(77, false)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, reg, logging.NewLogger("error")) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, strings.Contains(body, "battery_alert_percent 77"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
