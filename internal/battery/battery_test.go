package battery

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleValidate(t *testing.T) {
	now := time.Now()
	assert.NoError(t, Sample{Timestamp: now, Percent: 0}.Validate())
	assert.NoError(t, Sample{Timestamp: now, Percent: 100}.Validate())

	for _, p := range []float64{-0.1, 100.1, math.NaN()} {
		err := Sample{Timestamp: now, Percent: p}.Validate()
		var se *SampleError
		assert.True(t, errors.As(err, &se), "percent %v", p)
	}
	assert.Error(t, Sample{Percent: 50}.Validate())
}

func TestHealth(t *testing.T) {
	h, ok := Capacity{Design: 50000, Full: 45000}.Health()
	require.True(t, ok)
	assert.InDelta(t, 90.0, h, 0.0001)

	_, ok = Capacity{Design: 0, Full: 45000}.Health()
	assert.False(t, ok)
	_, ok = Capacity{Design: -1, Full: -1}.Health()
	assert.False(t, ok)
}

func TestAsSampleError(t *testing.T) {
	assert.Nil(t, AsSampleError(nil))

	wrapped := fmt.Errorf("upower: %w", ErrNoBattery)
	se := AsSampleError(wrapped)
	require.NotNil(t, se)
	assert.ErrorIs(t, se, ErrNoBattery)

	orig := &SampleError{Reason: "no battery present"}
	assert.Same(t, orig, AsSampleError(fmt.Errorf("tick: %w", orig)))
}
