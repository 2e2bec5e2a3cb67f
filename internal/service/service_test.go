package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/TheCacophonyProject/battery-alert/internal/engine"
	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	status  engine.Status
	muted   []bool
	stops   int
	failing error
}

func (c *fakeController) Status(ctx context.Context) (engine.Status, error) {
	return c.status, c.failing
}

func (c *fakeController) SetMute(ctx context.Context, muted bool) error {
	if c.failing != nil {
		return c.failing
	}
	c.muted = append(c.muted, muted)
	return nil
}

func (c *fakeController) StopSound(ctx context.Context) error {
	c.stops++
	return c.failing
}

func newTestService(ctl *fakeController) *Service {
	return &Service{ctl: ctl, log: logging.NewLogger("error")}
}

func TestStatusIsJSON(t *testing.T) {
	ctl := &fakeController{status: engine.Status{Percent: 12, Band: "critical", AlertState: "lower-alerting", SoundActive: true}}
	s := newTestService(ctl)

	raw, dErr := s.Status()
	require.Nil(t, dErr)
	var got engine.Status
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, ctl.status, got)
}

func TestSetMuteAndStopSound(t *testing.T) {
	ctl := &fakeController{}
	s := newTestService(ctl)

	assert.Nil(t, s.SetMute(true))
	assert.Nil(t, s.SetMute(false))
	assert.Equal(t, []bool{true, false}, ctl.muted)

	assert.Nil(t, s.StopSound())
	assert.Equal(t, 1, ctl.stops)
}

func TestErrorsAreNamedAfterMethod(t *testing.T) {
	ctl := &fakeController{failing: errors.New("event loop closed")}
	s := newTestService(ctl)

	dErr := s.SetMute(true)
	require.NotNil(t, dErr)
	assert.Equal(t, DbusName+".SetMute", dErr.Name)
	assert.Equal(t, []interface{}{"event loop closed"}, dErr.Body)

	_, dErr = s.Status()
	require.NotNil(t, dErr)
	assert.Equal(t, DbusName+".Status", dErr.Name)
}

func TestSignalBody(t *testing.T) {
	body := signalBody(engine.Status{Percent: 95, Charging: true, Band: "high", AlertState: "upper-alerting"})
	assert.Equal(t, []interface{}{95.0, true, "high", "upper-alerting", false}, body)

	var s *Service
	assert.NoError(t, s.EmitStatus(engine.Status{}))
}
