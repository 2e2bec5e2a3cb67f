package config

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]bool

func (s stubResolver) Resolve(ref string) (string, bool) {
	if s[ref] {
		return "/sounds/" + ref, true
	}
	return "", false
}

var allSounds = stubResolver{"full.wav": true, "low.wav": true}

func writeConfig(t *testing.T, dir, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, goconfig.ConfigFileName), []byte(content), 0644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadMissingSectionUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[location]\nlatitude = -43.5\n")
	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[battery-alert]
upper-threshold = 80
lower-threshold = 20.5
full-battery-sound = "ding.wav"
mute-alerts = true
poll-interval = "10s"
source = "sysfs"
sysfs-device = "BAT1"
resource-dirs = ["/usr/share/sounds", "/opt/sounds"]
metrics-addr = ":2112"
`)
	c, err := Load(dir)
	require.NoError(t, err)

	want := Default()
	want.UpperThreshold = 80
	want.LowerThreshold = 20.5
	want.FullBatterySound = "ding.wav"
	want.MuteAlerts = true
	want.PollInterval = 10 * time.Second
	want.Source = SourceSysfs
	want.SysfsDevice = "BAT1"
	want.ResourceDirs = []string{"/usr/share/sounds", "/opt/sounds"}
	want.MetricsAddr = ":2112"
	assert.Equal(t, want, c)
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[battery-alert\nupper-threshold = ")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		field  string
		msg    string
	}{
		{"defaults", func(c *Config) {}, "", ""},
		{"upper zero", func(c *Config) { c.UpperThreshold = 0 }, "UpperThreshold", "UpperThreshold 0 is out of valid range (1-100)"},
		{"upper above 100", func(c *Config) { c.UpperThreshold = 101 }, "UpperThreshold", "UpperThreshold 101 is out of valid range (1-100)"},
		{"upper NaN", func(c *Config) { c.UpperThreshold = math.NaN() }, "UpperThreshold", "UpperThreshold NaN is out of valid range (1-100)"},
		{"upper 100 ok", func(c *Config) { c.UpperThreshold = 100 }, "", ""},
		{"lower negative", func(c *Config) { c.LowerThreshold = -1 }, "LowerThreshold", "LowerThreshold -1 is out of valid range (0-99)"},
		{"lower 100", func(c *Config) { c.LowerThreshold = 100 }, "LowerThreshold", "LowerThreshold 100 is out of valid range (0-99)"},
		{"lower zero ok", func(c *Config) { c.LowerThreshold = 0 }, "", ""},
		{"lower equals upper", func(c *Config) { c.UpperThreshold = 50; c.LowerThreshold = 50 }, "LowerThreshold", "LowerThreshold 50 must be less than UpperThreshold 50"},
		{"full sound missing", func(c *Config) { c.FullBatterySound = "" }, "FullBatterySound", "FullBatterySound file name is missing"},
		{"low sound missing", func(c *Config) { c.LowBatterySound = "" }, "LowBatterySound", "LowBatterySound file name is missing"},
		{"full sound blank", func(c *Config) { c.FullBatterySound = "   " }, "FullBatterySound", "FullBatterySound file name is missing"},
		{"low sound blank", func(c *Config) { c.LowBatterySound = "\t " }, "LowBatterySound", "LowBatterySound file name is missing"},
		{"full sound not found", func(c *Config) { c.FullBatterySound = "nope.wav" }, "FullBatterySound", "FullBatterySound file not found: nope.wav"},
		{"low sound not found", func(c *Config) { c.LowBatterySound = "nope.wav" }, "LowBatterySound", "LowBatterySound file not found: nope.wav"},
		{"poll interval", func(c *Config) { c.PollInterval = 0 }, "PollInterval", "PollInterval 0s must be positive"},
		{"unknown source", func(c *Config) { c.Source = "acpi" }, "Source", "Source 'acpi' is not one of upower, sysfs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			err := c.Validate(allSounds)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
			assert.Equal(t, tt.msg, cerr.Msg)
		})
	}
}

func TestValidateReportsFirstProblem(t *testing.T) {
	c := Default()
	c.UpperThreshold = 150
	c.LowerThreshold = -5
	c.FullBatterySound = ""
	err := c.Validate(stubResolver{})
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "UpperThreshold", cerr.Field)
}

func TestDiff(t *testing.T) {
	a := Default()
	b := Default()
	assert.Empty(t, Diff(a, b))
	b.LowerThreshold = 10
	assert.NotEmpty(t, Diff(a, b))
}

func TestWaitForChange(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[battery-alert]\nupper-threshold = 90\n")
	current, err := Load(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := make(chan string, 1)
	go func() {
		diff, _ := WaitForChange(ctx, dir, current, logging.NewLogger("error"))
		result <- diff
	}()

	// Keep rewriting until the watch is in place and sees it.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, goconfig.ConfigFileName), []byte("[battery-alert]\nupper-threshold = 85\n"), 0644)
		select {
		case diff := <-result:
			return assert.NotEmpty(t, diff)
		default:
			return false
		}
	}, 4*time.Second, 100*time.Millisecond)
}
