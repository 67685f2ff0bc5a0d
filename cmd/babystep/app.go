// Backend assembly from configuration
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"context"
	"io"
	"sync"

	"github.com/tebeka/atexit"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/config"
	"babystep-go/pkg/errors"
	"babystep-go/pkg/log"
	"babystep-go/pkg/marlin"
	"babystep-go/pkg/metrics"
	"babystep-go/pkg/paramstore"
	"babystep-go/pkg/serial"
)

// app holds the collaborators built from one configuration.
type app struct {
	cfg      *config.BabystepConfig
	actuator babystep.Actuator
	store    babystep.ParameterStore
	metrics  *metrics.BabystepMetrics
	log      *log.Logger

	closeOnce sync.Once
	closers   []io.Closer
}

// openTransport is replaced in tests.
var openTransport = func(sc config.SerialConfig) (io.ReadWriteCloser, error) {
	if sc.Port != "" {
		cfg := serial.DefaultConfig()
		cfg.Device = sc.Port
		cfg.BaudRate = sc.Baud
		return serial.Open(cfg)
	}
	return serial.OpenTCP(sc.Host, sc.Timeout)
}

func newApp(ctx context.Context, cfg *config.BabystepConfig) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: metrics.GlobalMetrics(),
		log:     log.GetLogger("app"),
	}
	atexit.Register(a.close)

	var link *marlin.Link
	var caps map[string]bool
	if cfg.Actuator == config.BackendMarlin {
		rw, err := openTransport(cfg.Serial)
		if err != nil {
			a.close()
			return nil, err
		}
		link = marlin.NewLink(rw, marlin.WithCommandTimeout(cfg.Serial.Timeout))
		a.closers = append(a.closers, link)

		lines, err := link.Handshake(ctx)
		if err != nil {
			a.close()
			return nil, err
		}
		caps = marlin.Capabilities(lines)
		a.log.Info("marlin firmware ready, eeprom=%t", caps["EEPROM"])
		act := marlin.NewActuator(link)
		// Seed from the firmware so earlier babysteps count against the limits.
		if synced, err := act.Sync(); err != nil {
			a.log.WithError(err).Warn("babystep total query failed, starting from 0")
		} else if !synced {
			a.log.Warn("firmware does not report a babystep total, starting from 0")
		} else {
			a.log.Info("firmware babystep total %.3f", act.TotalApplied())
		}
		a.actuator = act
	} else {
		a.actuator = babystep.NewSimulatedActuator(0, 0)
	}

	store, err := a.openStore(link, caps)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = paramstore.WithPersistence(store, cfg.ParamStore.Persistence)
	return a, nil
}

func (a *app) openStore(link *marlin.Link, caps map[string]bool) (babystep.ParameterStore, error) {
	ps := a.cfg.ParamStore
	switch ps.Backend {
	case config.BackendMarlin:
		if link == nil {
			return nil, errors.RuntimeErrorInit("param_store", "marlin store without a marlin link")
		}
		return marlin.NewParamStoreWithPersistence(link, caps["EEPROM"]), nil
	case config.BackendVarFile:
		return paramstore.NewVarFile(ps.Path)
	case config.BackendAutosave:
		return paramstore.NewAutosave(ps.Path)
	case config.BackendSQLite:
		s, err := paramstore.NewSQLite(ps.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	case config.BackendMemory:
		m := paramstore.NewMemory(true)
		if err := m.Write(babystep.ParamNozzleOffset, babystep.AxisZ, ps.ZOffset); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, errors.RuntimeErrorInit("param_store", "unknown backend "+ps.Backend)
}

// controllerOptions are shared by every command that builds a Controller.
func (a *app) controllerOptions(p babystep.Presenter) []babystep.Option {
	opts := []babystep.Option{
		babystep.WithUnits(a.cfg.Units, a.cfg.UnitIndex),
		babystep.WithLogger(log.GetLogger("babystep")),
		babystep.WithMetrics(a.metrics),
	}
	if p != nil {
		opts = append(opts, babystep.WithPresenter(p))
	}
	return opts
}

func (a *app) close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i].Close(); err != nil {
				a.log.WithError(err).Warn("close failed")
			}
		}
	})
}
