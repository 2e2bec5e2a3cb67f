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

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheCacophonyProject/battery-alert/internal/alert"
	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/google/go-cmp/cmp"
)

// Key is the section of the device config file holding these settings.
const Key = "battery-alert"

const (
	SourceUPower = "upower"
	SourceSysfs  = "sysfs"
)

type Config struct {
	UpperThreshold   float64       `mapstructure:"upper-threshold"`
	LowerThreshold   float64       `mapstructure:"lower-threshold"`
	FullBatterySound string        `mapstructure:"full-battery-sound"`
	LowBatterySound  string        `mapstructure:"low-battery-sound"`
	MuteAlerts       bool          `mapstructure:"mute-alerts"`
	PollInterval     time.Duration `mapstructure:"poll-interval"`
	Source           string        `mapstructure:"source"`
	SysfsDevice      string        `mapstructure:"sysfs-device"`
	PlayerCommand    string        `mapstructure:"player-command"`
	ResourceDirs     []string      `mapstructure:"resource-dirs"`
	MetricsAddr      string        `mapstructure:"metrics-addr"`
}

func Default() Config {
	return Config{
		UpperThreshold:   90,
		LowerThreshold:   15,
		FullBatterySound: "full.wav",
		LowBatterySound:  "low.wav",
		PollInterval:     5 * time.Second,
		Source:           SourceUPower,
		SysfsDevice:      "BAT0",
		PlayerCommand:    "aplay -q",
	}
}

// Load reads the battery-alert section of the config file in configDir.
// Settings that are not in the file keep their defaults.
func Load(configDir string) (Config, error) {
	c := Default()
	path := filepath.Join(configDir, goconfig.ConfigFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c, nil
	}

	conf, err := goconfig.New(configDir)
	if err != nil {
		return c, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := conf.Unmarshal(Key, &c); err != nil {
		return c, fmt.Errorf("failed to parse '%s' section: %w", Key, err)
	}
	return c, nil
}

func (c Config) Thresholds() alert.Thresholds {
	return alert.Thresholds{Upper: c.UpperThreshold, Lower: c.LowerThreshold}
}

// Error is a configuration problem that stops the engine from starting.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return "invalid configuration: " + e.Msg
}

// FileResolver finds sound files.
type FileResolver interface {
	Resolve(ref string) (string, bool)
}

// Validate returns the first problem found, checking thresholds before sounds.
func (c Config) Validate(r FileResolver) error {
	if math.IsNaN(c.UpperThreshold) || c.UpperThreshold <= 0 || c.UpperThreshold > 100 {
		return &Error{Field: "UpperThreshold", Msg: fmt.Sprintf("UpperThreshold %g is out of valid range (1-100)", c.UpperThreshold)}
	}
	if math.IsNaN(c.LowerThreshold) || c.LowerThreshold < 0 || c.LowerThreshold >= 100 {
		return &Error{Field: "LowerThreshold", Msg: fmt.Sprintf("LowerThreshold %g is out of valid range (0-99)", c.LowerThreshold)}
	}
	if c.LowerThreshold >= c.UpperThreshold {
		return &Error{Field: "LowerThreshold", Msg: fmt.Sprintf("LowerThreshold %g must be less than UpperThreshold %g", c.LowerThreshold, c.UpperThreshold)}
	}
	if strings.TrimSpace(c.FullBatterySound) == "" {
		return &Error{Field: "FullBatterySound", Msg: "FullBatterySound file name is missing"}
	}
	if strings.TrimSpace(c.LowBatterySound) == "" {
		return &Error{Field: "LowBatterySound", Msg: "LowBatterySound file name is missing"}
	}
	if _, ok := r.Resolve(c.FullBatterySound); !ok {
		return &Error{Field: "FullBatterySound", Msg: fmt.Sprintf("FullBatterySound file not found: %s", c.FullBatterySound)}
	}
	if _, ok := r.Resolve(c.LowBatterySound); !ok {
		return &Error{Field: "LowBatterySound", Msg: fmt.Sprintf("LowBatterySound file not found: %s", c.LowBatterySound)}
	}
	if c.PollInterval <= 0 {
		return &Error{Field: "PollInterval", Msg: fmt.Sprintf("PollInterval %s must be positive", c.PollInterval)}
	}
	switch c.Source {
	case SourceUPower, SourceSysfs:
	default:
		return &Error{Field: "Source", Msg: fmt.Sprintf("Source '%s' is not one of %s, %s", c.Source, SourceUPower, SourceSysfs)}
	}
	return nil
}

// Diff describes how b differs from a, empty when they are the same.
func Diff(a, b Config) string {
	return cmp.Diff(a, b)
}
