// Root command and shared flags
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"babystep-go/pkg/config"
	"babystep-go/pkg/log"
)

type globalFlags struct {
	configFile string
	configSet  bool
	envFiles   []string
	logLevel   string
	logFormat  string
	logFile    string
	logMaxMB   int
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "babystep",
		Short: "Adjust the printer Z offset in baby steps",
		Long: `babystep moves the Z axis by small bounded amounts while a print runs and ` +
			`mirrors every move into the nozzle Z offset, so the correction survives a save.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags.configSet = cmd.Flags().Changed("config")
			return flags.setup()
		},
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "babystep.cfg",
		"configuration file; a missing file means built-in defaults")
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", []string{".env"},
		"dotenv files with BABYSTEP__ overrides")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "text or json")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "",
		"write logs to a size-rotated file instead of stderr")
	root.PersistentFlags().IntVar(&flags.logMaxMB, "log-max-mb", 4, "rotate the log file at this size")

	root.AddCommand(newRunCmd(flags), newShowCmd(flags), newResetCmd(flags))
	return root
}

func (f *globalFlags) setup() error {
	if err := config.LoadEnvFiles(f.envFiles...); err != nil {
		return err
	}
	logger := log.New("babystep")
	log.ConfigureFromEnv(logger)
	if f.logLevel != "" {
		logger.SetLevel(log.ParseLevel(f.logLevel))
	}
	switch f.logFormat {
	case "json":
		logger.SetFormat(log.FormatJSON)
	case "text":
		logger.SetFormat(log.FormatText)
	}
	if f.logFile != "" {
		w, err := log.OpenFile(log.FileConfig{
			Path:     f.logFile,
			MaxBytes: int64(f.logMaxMB) << 20,
			Compress: true,
		})
		if err != nil {
			return err
		}
		logger.SetWriter(w)
		logger.SetColorize(false)
		atexit.Register(func() { w.Close() })
	}
	log.SetDefaultLogger(logger)
	return nil
}

// loadConfig reads the configuration file, applies environment
// overrides and builds the typed configuration.
func (f *globalFlags) loadConfig() (*config.BabystepConfig, error) {
	return loadConfig(f.configFile, f.configSet, os.Environ())
}

// loadConfig falls back to defaults when an optional file is missing.
func loadConfig(path string, required bool, environ []string) (*config.BabystepConfig, error) {
	c := config.New()
	if _, err := os.Stat(path); err == nil || required {
		if c, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if n := c.ApplyEnv(environ); n > 0 {
		log.GetLogger("config").Debug("applied %d environment overrides", n)
	}
	return config.ParseBabystep(c)
}
