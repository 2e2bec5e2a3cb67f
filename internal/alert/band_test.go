package alert

import (
	"testing"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/battery"
	"github.com/stretchr/testify/assert"
)

var thresholds = Thresholds{Upper: 90, Lower: 15}

func TestClassify(t *testing.T) {
	tests := []struct {
		percent float64
		band    Band
	}{
		{100, BandFull},
		{99.9, BandHigh},
		{90, BandHigh},
		{89.9, BandMidHigh},
		{52.6, BandMidHigh},
		{52.5, BandMidLow},
		{15.1, BandMidLow},
		{15, BandCritical},
		{0, BandCritical},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.band, Classify(tc.percent, thresholds), "percent %v", tc.percent)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	// Upper is closed at the boundary, lower falls into critical.
	for _, th := range []Thresholds{{90, 15}, {100, 0}, {50, 49}, {1, 0}} {
		assert.NotEqual(t, BandMidHigh, Classify(th.Upper, th))
		if th.Upper == 100 {
			assert.Equal(t, BandFull, Classify(th.Upper, th))
		} else {
			assert.Equal(t, BandHigh, Classify(th.Upper, th))
		}
		assert.Equal(t, BandCritical, Classify(th.Lower, th))
	}
}

func TestClassifyIsTotal(t *testing.T) {
	for _, th := range []Thresholds{{90, 15}, {80, 20}, {100, 0}, {60, 59.5}} {
		prev := BandCritical
		for p := 0.0; p <= 100; p += 0.25 {
			band := Classify(p, th)
			assert.GreaterOrEqual(t, band, BandCritical)
			assert.LessOrEqual(t, band, BandFull)
			// Bands never go down as the percentage rises.
			assert.GreaterOrEqual(t, band, prev, "percent %v thresholds %v", p, th)
			prev = band
		}
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		percent  float64
		charging bool
		band     Band
		kind     Kind
	}{
		{"high while charging", 92, true, BandHigh, KindUpper},
		{"full while charging", 100, true, BandFull, KindUpper},
		{"high on battery", 92, false, BandHigh, KindNone},
		{"critical on battery", 10, false, BandCritical, KindLower},
		{"critical while charging", 10, true, BandCritical, KindNone},
		{"middle", 50, false, BandMidLow, KindNone},
		{"at lower", 15, false, BandCritical, KindLower},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			band, kind := Evaluate(battery.Sample{Timestamp: now, Percent: tc.percent, Charging: tc.charging}, thresholds)
			assert.Equal(t, tc.band, band)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestBandColor(t *testing.T) {
	assert.Equal(t, "green", BandFull.Color())
	assert.Equal(t, "green", BandHigh.Color())
	assert.Equal(t, "yellowgreen", BandMidHigh.Color())
	assert.Equal(t, "orange", BandMidLow.Color())
	assert.Equal(t, "red", BandCritical.Color())
}
