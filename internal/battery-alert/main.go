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

package alerter

import (
	"errors"
	"fmt"
	"os"

	"github.com/TheCacophonyProject/battery-alert/internal/config"
	"github.com/TheCacophonyProject/battery-alert/internal/logging"
	"github.com/TheCacophonyProject/battery-alert/internal/resources"
	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/alexflint/go-arg"
)

type Args struct {
	Service     *subcommand `arg:"subcommand:service" help:"Run the battery alert service."`
	Status      *StatusCmd  `arg:"subcommand:status" help:"Print the status of the running service."`
	Mute        *subcommand `arg:"subcommand:mute" help:"Mute alerts on the running service."`
	Unmute      *subcommand `arg:"subcommand:unmute" help:"Unmute alerts on the running service."`
	StopSound   *subcommand `arg:"subcommand:stop-sound" help:"Silence the alert that is playing without muting."`
	CheckConfig *subcommand `arg:"subcommand:check-config" help:"Check the config and sound files then exit."`
	goconfig.ConfigArgs
	logging.LogArgs
}

type subcommand struct {
}

type StatusCmd struct {
	YAML bool `arg:"--yaml" help:"Print the status as YAML instead of text."`
}

func (Args) Version() string {
	return version
}

var (
	log     = logging.NewLogger("info")
	version = "<not set>"
)

var defaultArgs = Args{
	ConfigArgs: goconfig.ConfigArgs{ConfigDir: goconfig.DefaultConfigDir},
}

func procArgs(input []string) (Args, error) {
	args := defaultArgs

	parser, err := arg.NewParser(arg.Config{}, &args)
	if err != nil {
		return Args{}, err
	}
	err = parser.Parse(input)
	if errors.Is(err, arg.ErrHelp) {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if errors.Is(err, arg.ErrVersion) {
		fmt.Println(version)
		os.Exit(0)
	}
	return args, err
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)

	switch {
	case args.Service != nil:
		log.Infof("Running version: %s", version)
		return runService(args.ConfigDir)
	case args.Status != nil:
		return printStatus(os.Stdout, args.Status.YAML)
	case args.Mute != nil:
		return setMute(true)
	case args.Unmute != nil:
		return setMute(false)
	case args.StopSound != nil:
		return stopSound()
	case args.CheckConfig != nil:
		return checkConfig(args.ConfigDir)
	default:
		return errors.New("no subcommand given, see --help")
	}
}

// loadConfig reads and validates the config, returning the resolver used for sounds.
func loadConfig(configDir string) (config.Config, resources.Resolver, error) {
	conf, err := config.Load(configDir)
	if err != nil {
		return config.Config{}, resources.Resolver{}, err
	}
	resolver := resources.Resolver{Dirs: resources.DefaultDirs(configDir, conf.ResourceDirs)}
	if err := conf.Validate(resolver); err != nil {
		return config.Config{}, resources.Resolver{}, err
	}
	return conf, resolver, nil
}

func checkConfig(configDir string) error {
	conf, resolver, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	full, _ := resolver.Resolve(conf.FullBatterySound)
	low, _ := resolver.Resolve(conf.LowBatterySound)
	log.Infof("Thresholds: upper %g%%, lower %g%%", conf.UpperThreshold, conf.LowerThreshold)
	log.Infof("Full battery sound: %s", full)
	log.Infof("Low battery sound: %s", low)
	log.Infof("Source: %s, polling every %s", conf.Source, conf.PollInterval)
	log.Info("Config OK")
	return nil
}
