// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package actors holds the runtime state of the controllable devices
// and the drivers speaking to them. A driver implements one of two
// capabilities: Switch (relay loads) or Regulator (inverters, battery
// charge/discharge). Driver I/O is fire-and-forget; errors are logged
// and never reach the control loop, which re-computes the desired
// state on the next sample anyway.
package actors

import (
	"fmt"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/config"
)

type Switch interface {
	On()
	Off()
}

type Regulator interface {
	// ChangePower adjusts the setpoint by delta watts, clamped into
	// [0, upper limit].
	ChangePower(delta int)

	// Power reports the last commanded setpoint.
	Power() int
}

// State is the control loop's view of one configured actor. It is
// owned by the controller goroutine and not safe for concurrent use.
type State struct {
	name      string
	busyUntil time.Time
	settling  time.Duration
	clock     func() time.Time

	switching  *switchingState
	regulating *regulatingState
}

type switchingState struct {
	driver Switch
	on     bool
	watts  int
}

type regulatingState struct {
	driver   Regulator
	maxWatts int
}

func NewSwitching(name string, driver Switch, nominalWatts int, settling time.Duration) *State {
	return &State{
		name:      name,
		settling:  settling,
		clock:     time.Now,
		switching: &switchingState{driver: driver, watts: nominalWatts},
	}
}

func NewRegulating(name string, driver Regulator, maxWatts int, settling time.Duration) *State {
	return &State{
		name:       name,
		settling:   settling,
		clock:      time.Now,
		regulating: &regulatingState{driver: driver, maxWatts: maxWatts},
	}
}

func (s *State) Name() string {
	return s.name
}

// IsActive reports whether the actor currently moves power: a
// switching actor that is on, or a regulating actor with a nonzero
// setpoint.
func (s *State) IsActive() bool {
	if s.switching != nil {
		return s.switching.on
	}
	return s.regulating.driver.Power() > 0
}

// IsBusy reports whether the actor is inside its settle window.
func (s *State) IsBusy() bool {
	return s.clock().Before(s.busyUntil)
}

// setBusy extends the settle window. busyUntil never moves backward.
func (s *State) setBusy() {
	if until := s.clock().Add(s.settling); until.After(s.busyUntil) {
		s.busyUntil = until
	}
}

// TurnOff forces the known baseline at startup. It does not arm the
// busy gate: the first sample may dispatch immediately.
func (s *State) TurnOff() {
	if s.switching != nil {
		s.switching.driver.Off()
		s.switching.on = false
		return
	}
	s.regulating.driver.ChangePower(-s.regulating.driver.Power())
}

// IncreaseEffectBy asks the actor to move up to watts additional power
// and returns the effect it will actually have. Busy or saturated
// actors return 0 and the caller moves on to the next one.
func (s *State) IncreaseEffectBy(watts int) int {
	if s.IsBusy() {
		return 0
	}
	if s.switching != nil {
		st := s.switching
		if st.on || st.watts > watts {
			return 0
		}
		st.driver.On()
		st.on = true
		s.setBusy()
		return st.watts
	}

	st := s.regulating
	headroom := st.maxWatts - st.driver.Power()
	if headroom <= 0 {
		return 0
	}
	effect := min(headroom, watts)
	st.driver.ChangePower(effect)
	s.setBusy()
	return effect
}

// ReduceEffectBy is the inverse; only active, non-busy actors respond.
func (s *State) ReduceEffectBy(watts int) int {
	if s.IsBusy() || !s.IsActive() {
		return 0
	}
	if s.switching != nil {
		st := s.switching
		st.driver.Off()
		st.on = false
		s.setBusy()
		return st.watts
	}

	st := s.regulating
	current := st.driver.Power()
	st.driver.ChangePower(-watts)
	s.setBusy()
	return min(current, watts)
}

// FromConfig builds the actor for one config entry.
func FromConfig(cfg *config.ActorConfig) (*State, error) {
	settling := time.Duration(cfg.SettlingSeconds) * time.Second
	name := cfg.Kind
	switch {
	case cfg.URL != "":
		name = fmt.Sprintf("%s(%s)", cfg.Kind, cfg.URL)
	case cfg.Address != "":
		name = fmt.Sprintf("%s(%s)", cfg.Kind, cfg.Address)
	case cfg.Modbus != nil && cfg.Modbus.TCP != "":
		name = fmt.Sprintf("%s(%s)", cfg.Kind, cfg.Modbus.TCP)
	}

	switch cfg.Kind {
	case "tasmota":
		return NewSwitching(name, &Tasmota{URL: cfg.URL}, cfg.NominalWatts, settling), nil
	case "hs100":
		return NewSwitching(name, &HS100{Address: cfg.Address}, cfg.NominalWatts, settling), nil
	case "ahoy-dtu":
		driver := &AhoyDTU{
			URL:             cfg.URL,
			InverterNo:      cfg.InverterNo,
			UpperLimitWatts: cfg.UpperLimitWatts,
		}
		return NewRegulating(name, driver, cfg.MaxWatts, settling), nil
	case "open-dtu":
		nameplate := cfg.NameplateWatts
		if nameplate == 0 {
			nameplate = cfg.MaxWatts
		}
		driver := &OpenDTU{
			URL:             cfg.URL,
			Serial:          cfg.Serial,
			Password:        cfg.Password,
			NameplateWatts:  nameplate,
			UpperLimitWatts: cfg.UpperLimitWatts,
		}
		return NewRegulating(name, driver, cfg.MaxWatts, settling), nil
	case "ez1m":
		driver := &EZ1M{URL: cfg.URL, UpperLimitWatts: cfg.UpperLimitWatts}
		return NewRegulating(name, driver, cfg.MaxWatts, settling), nil
	case "marstek-charge", "marstek-discharge":
		if cfg.Modbus == nil {
			return nil, fmt.Errorf("actors: '%s' needs a 'modbus' section", cfg.Kind)
		}
		driver := &Marstek{
			Conn:            cfg.Modbus,
			UpperLimitWatts: cfg.UpperLimitWatts,
			discharge:       cfg.Kind == "marstek-discharge",
		}
		return NewRegulating(name, driver, cfg.MaxWatts, settling), nil
	}
	return nil, fmt.Errorf("actors: unknown actor kind '%s'", cfg.Kind)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
