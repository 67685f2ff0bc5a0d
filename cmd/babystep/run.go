// run: interactive baby-step screen
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/config"
	"babystep-go/pkg/display"
	"babystep-go/pkg/input"
	"babystep-go/pkg/log"
	"babystep-go/pkg/statusapi"
)

type runOptions struct {
	yes        bool
	noKeyboard bool
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the baby-step screen",
		Long: `Opens the baby-step screen. On a terminal the arrow keys and + - < > u r s q ` +
			`drive it; otherwise whitespace separated tokens are read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(cmd, flags, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "confirm saves without asking")
	cmd.Flags().BoolVar(&opts.noKeyboard, "no-keyboard", false, "read tokens from stdin even on a terminal")
	return cmd
}

func runScreen(cmd *cobra.Command, flags *globalFlags, opts *runOptions) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	logger := log.GetLogger("run")
	queue := input.NewQueue()
	interactive := !opts.noKeyboard && term.IsTerminal(int(os.Stdin.Fd()))

	var confirmer babystep.Confirmer = display.FixedConfirmer{Answer: opts.yes}
	if interactive && !opts.yes {
		confirmer = display.KeyConfirmer{Keys: queue, Out: cmd.OutOrStdout()}
	}

	var screen *babystep.Screen
	var server *statusapi.Server
	presenters := display.Multi{display.NewConsole(cmd.OutOrStdout())}
	if cfg.StatusServer.Enabled {
		server = statusapi.New(statusapi.Config{
			Addr:    cfg.StatusServer.Listen,
			Status:  statusapi.StatusFunc(func() map[string]any { return screen.Status() }),
			Input:   queue,
			Metrics: a.metrics,
		})
		presenters = append(presenters, server)
	}

	screen, err = babystep.NewScreen(babystep.ScreenConfig{
		Actuator:       a.actuator,
		Store:          a.store,
		Presenter:      presenters,
		Confirmer:      confirmer,
		Input:          queue,
		Limits:         cfg.Limits,
		Units:          cfg.Units,
		UnitIndex:      cfg.UnitIndex,
		FriendlyLabels: cfg.FriendlyLabels,
		Logger:         log.GetLogger("screen"),
		Metrics:        a.metrics,
	})
	if err != nil {
		return err
	}

	if server != nil {
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			server.Stop(shutdownCtx)
		}()
	}

	if interactive {
		go func() {
			if err := input.ListenKeyboard(queue); err != nil {
				logger.WithError(err).Error("keyboard input stopped")
			}
			queue.PushKey(babystep.KeyBack)
		}()
	} else {
		go readStdin(ctx, os.Stdin, newScript(queue, cfg.Encoder), logger)
	}

	err = screen.Run(ctx, cfg.PollInterval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readStdin feeds scripted tokens and closes the screen at end of input.
func readStdin(ctx context.Context, r io.Reader, script input.Script, logger *log.Logger) {
	err := script.Read(ctx, r, func(err error) {
		logger.Warn("%v", err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("stdin input stopped")
	}
	script.Queue.PushKey(babystep.KeyBack)
}

// newScript builds the stdin token reader with the configured encoder.
func newScript(q *input.Queue, ec config.EncoderConfig) input.Script {
	enc := input.NewRotaryEncoder(q, ec.HalfStep)
	enc.Reverse = ec.Reverse
	return input.Script{Queue: q, Encoder: enc}
}
