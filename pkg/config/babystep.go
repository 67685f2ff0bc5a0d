// Typed baby-step configuration
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"time"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/errors"
)

// Actuator and parameter store backends.
const (
	BackendMarlin    = "marlin"
	BackendSimulated = "simulated"
	BackendAutosave  = "autosave"
	BackendVarFile   = "varfile"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// SerialConfig holds the [serial] section.
type SerialConfig struct {
	Port    string // device path, e.g. /dev/ttyUSB0
	Host    string // host:port for a TCP bridge, used when Port is empty
	Baud    int
	Timeout time.Duration
}

// ParamStoreConfig holds the [param_store] section.
type ParamStoreConfig struct {
	Backend     string
	Path        string
	Persistence bool
	ZOffset     float64 // initial nozzle Z offset for the memory backend
}

// StatusServerConfig holds the [status_server] section.
type StatusServerConfig struct {
	Enabled bool
	Listen  string
}

// EncoderConfig holds the [encoder] section for pin states read from
// scripted input.
type EncoderConfig struct {
	HalfStep bool
	Reverse  bool
}

// BabystepConfig is the complete runtime configuration.
type BabystepConfig struct {
	Limits         babystep.Limits
	Units          []babystep.Unit
	UnitIndex      int
	FriendlyLabels bool
	PollInterval   time.Duration
	Actuator       string

	Serial       SerialConfig
	ParamStore   ParamStoreConfig
	StatusServer StatusServerConfig
	Encoder      EncoderConfig
}

// ParseBabystep builds a BabystepConfig. Absent sections take defaults;
// options nobody reads are reported as errors.
func ParseBabystep(c *Config) (*BabystepConfig, error) {
	bc := &BabystepConfig{}
	if err := bc.parseBabystep(c.GetSectionOptional("babystep")); err != nil {
		return nil, err
	}
	if err := bc.parseSerial(c.GetSectionOptional("serial")); err != nil {
		return nil, err
	}
	if err := bc.parseParamStore(c.GetSectionOptional("param_store")); err != nil {
		return nil, err
	}
	if err := bc.parseStatusServer(c.GetSectionOptional("status_server")); err != nil {
		return nil, err
	}
	if err := bc.parseEncoder(c.GetSectionOptional("encoder")); err != nil {
		return nil, err
	}
	if err := c.CheckUnusedOptions(); err != nil {
		return nil, err
	}
	return bc, nil
}

func (bc *BabystepConfig) parseBabystep(sec *Section) error {
	def := babystep.DefaultLimits()
	var err error
	if bc.Limits.Min, err = sec.GetFloat("min_offset", def.Min); err != nil {
		return err
	}
	if bc.Limits.Max, err = sec.GetFloat("max_offset", def.Max); err != nil {
		return err
	}
	if bc.Limits.Default, err = sec.GetFloat("default_offset", def.Default); err != nil {
		return err
	}
	if bc.Limits.MaxChunk, err = sec.GetFloatWithBounds("max_chunk", FloatBounds{Above: Float(0)}, def.MaxChunk); err != nil {
		return err
	}
	if err := bc.Limits.Validate(); err != nil {
		return errors.ConfigValidationError(sec.GetName(), "default_offset", err.Error())
	}

	sizes, err := sec.GetFloatList("units", ",", []float64{0.01, 0.1, 1})
	if err != nil {
		return err
	}
	if len(sizes) == 0 {
		return errors.ConfigValidationError(sec.GetName(), "units", "at least one unit is required")
	}
	for _, s := range sizes {
		if s <= 0 {
			return errors.ConfigValidationError(sec.GetName(), "units", "units must be above 0")
		}
	}
	bc.Units = babystep.UnitsFromSizes(sizes)
	if isDefaultUnits(sizes) {
		bc.Units = babystep.DefaultUnits
	}

	if bc.UnitIndex, err = sec.GetIntWithBounds("unit_index", 0, len(sizes)-1, 0); err != nil {
		return err
	}
	if bc.FriendlyLabels, err = sec.GetBool("friendly_nozzle_offset_labels", false); err != nil {
		return err
	}
	if bc.PollInterval, err = sec.GetDuration("poll_interval", 50*time.Millisecond); err != nil {
		return err
	}
	bc.Actuator, err = sec.GetChoice("actuator", []string{BackendMarlin, BackendSimulated}, BackendSimulated)
	return err
}

func isDefaultUnits(sizes []float64) bool {
	if len(sizes) != len(babystep.DefaultUnits) {
		return false
	}
	for i, u := range babystep.DefaultUnits {
		if sizes[i] != u.Size {
			return false
		}
	}
	return true
}

func (bc *BabystepConfig) parseSerial(sec *Section) error {
	var err error
	if bc.Serial.Port, err = sec.Get("port", ""); err != nil {
		return err
	}
	if bc.Serial.Host, err = sec.Get("host", ""); err != nil {
		return err
	}
	if bc.Serial.Baud, err = sec.GetIntWithBounds("baud", 1200, 4000000, 115200); err != nil {
		return err
	}
	if bc.Serial.Timeout, err = sec.GetDuration("timeout", 2*time.Second); err != nil {
		return err
	}
	if bc.Actuator == BackendMarlin && bc.Serial.Port == "" && bc.Serial.Host == "" {
		return errors.ConfigValidationError(sec.GetName(), "port", "port or host is required for the marlin actuator")
	}
	return nil
}

func (bc *BabystepConfig) parseParamStore(sec *Section) error {
	choices := []string{BackendMarlin, BackendAutosave, BackendVarFile, BackendSQLite, BackendMemory}
	fallback := BackendMemory
	if bc.Actuator == BackendMarlin {
		fallback = BackendMarlin
	}
	var err error
	if bc.ParamStore.Backend, err = sec.GetChoice("backend", choices, fallback); err != nil {
		return err
	}
	if bc.ParamStore.Path, err = sec.Get("path", ""); err != nil {
		return err
	}
	if bc.ParamStore.Persistence, err = sec.GetBool("persistence", true); err != nil {
		return err
	}
	if bc.ParamStore.ZOffset, err = sec.GetFloat("z_offset", 0); err != nil {
		return err
	}

	switch bc.ParamStore.Backend {
	case BackendAutosave, BackendVarFile, BackendSQLite:
		if bc.ParamStore.Path == "" {
			return errors.ConfigValidationError(sec.GetName(), "path", "required for the "+bc.ParamStore.Backend+" backend")
		}
	case BackendMarlin:
		if bc.Actuator != BackendMarlin {
			return errors.ConfigValidationError(sec.GetName(), "backend", "marlin store needs the marlin actuator")
		}
	}
	return nil
}

func (bc *BabystepConfig) parseStatusServer(sec *Section) error {
	var err error
	if bc.StatusServer.Enabled, err = sec.GetBool("enabled", false); err != nil {
		return err
	}
	bc.StatusServer.Listen, err = sec.Get("listen", "127.0.0.1:7126")
	return err
}

func (bc *BabystepConfig) parseEncoder(sec *Section) error {
	steps, err := sec.GetChoice("steps", []string{"full", "half"}, "full")
	if err != nil {
		return err
	}
	bc.Encoder.HalfStep = steps == "half"
	bc.Encoder.Reverse, err = sec.GetBool("reverse", false)
	return err
}
