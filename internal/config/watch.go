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
	"context"
	"path/filepath"

	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/rjeczalik/notify"
)

// WaitForChange blocks until the config file is rewritten with settings that
// differ from current, returning the difference. Unreadable rewrites are logged
// and ignored.
func WaitForChange(ctx context.Context, configDir string, current Config, log *logging.Logger) (string, error) {
	configFilePath := filepath.Join(configDir, goconfig.ConfigFileName)
	fsEvents := make(chan notify.EventInfo, 1)
	if err := notify.Watch(configFilePath, fsEvents, notify.InCloseWrite, notify.InMovedTo); err != nil {
		return "", err
	}
	defer notify.Stop(fsEvents)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-fsEvents:
		}
		newConfig, err := Load(configDir)
		if err != nil {
			log.Error("error reloading config: ", err)
			continue
		}
		diff := Diff(current, newConfig)
		log.Debug("Config diff: ", diff)
		if diff != "" {
			return diff, nil
		}
		log.Info("No relevant changes detected in config file.")
	}
}
