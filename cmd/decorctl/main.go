// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"flag"
	"fmt"
	"os"

	decor "github.com/mstarongithub/way2decor"
	"github.com/mstarongithub/way2decor/config"
	"github.com/sirupsen/logrus"
)

var (
	configFile *string = flag.String(
		"config",
		"",
		"Path to a TOML or YAML config file. Default searches $XDG_CONFIG_HOME/way2decor",
	)
	pluginName *string = flag.String(
		"plugin",
		"",
		"Decoration plugin to prefer. Can be one of:"+
			"\n\t- border: Shadow and title bar"+
			"\n\t- fallback: No decorations",
	)
	help *bool = flag.Bool("help", false, "Show this help message")
)

func fatal(msg string, err error) {
	fmt.Printf("error %s: %s\n", msg, err)
	os.Exit(1)
}

func main() {
	flag.Parse()
	if *help {
		helpMessage()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fatal("loading config", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		fatal("parsing log level", err)
	}
	logrus.SetLevel(level)

	switch *pluginName {
	case "":
	case decor.FallbackPluginName:
		cfg.DisableDecorations = true
	default:
		cfg.Plugin = *pluginName
	}

	sh, err := newShell(cfg)
	if err != nil {
		fatal("initializing shell", err)
	}
	defer sh.Close()

	switch cfg.Shell.StartType {
	case config.START_REPL:
		go replRunner(sh)
	case config.START_SINGLE_COMMAND:
		go func() {
			fmt.Println(sh.Do(cfg.Shell.StartCommand))
			sh.Do("quit")
		}()
	case config.START_NONE:
		logrus.Infoln("Running without input, stop with a signal")
	}

	if err = sh.Run(); err != nil {
		fatal("running event loop", err)
	}
}

func loadConfig() (*config.Config, error) {
	if *configFile != "" {
		return config.Load(*configFile)
	}
	return config.LoadDefault()
}

func helpMessage() {
	fmt.Println("---- Help message for decorctl ----")
	fmt.Println("\ndecorctl runs decorated windows against an in-memory compositor and lets you poke at them")
	fmt.Println("\nFlags:")
	fmt.Println("\t-config: Path to the config file. Default searches the XDG config dirs")
	fmt.Println("\t-plugin: Decoration plugin to prefer (border, fallback)")
	fmt.Println("\t-help: Show this help message")
	fmt.Println("\nEnvironment:")
	fmt.Printf("\tEvery config value can be overridden with %s_*, e.g. %s_BORDER_TITLE_HEIGHT=30\n", config.EnvPrefix, config.EnvPrefix)
	fmt.Println("\nCommands:")
	fmt.Println(commandHelp())
}
