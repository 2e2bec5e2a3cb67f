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

package main

import (
	"fmt"
	"os"

	alerter "github.com/TheCacophonyProject/battery-alert/internal/battery-alert"
	"github.com/TheCacophonyProject/battery-alert/internal/logging"
)

var log *logging.Logger

var version = "<not set>"

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	log = logging.NewLogger("info")
	if len(os.Args) < 2 {
		log.Info("Usage: battery-alert <subcommand> [args]")
		return fmt.Errorf("no subcommand given")
	}
	return alerter.Run(os.Args[1:], version)
}
