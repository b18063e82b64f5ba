// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package actors

import (
	"testing"
	"time"
)

type fakeSwitch struct {
	ons, offs int
}

func (f *fakeSwitch) On()  { f.ons++ }
func (f *fakeSwitch) Off() { f.offs++ }

type fakeRegulator struct {
	power int
	limit int
}

func (f *fakeRegulator) ChangePower(delta int) { f.power = clamp(f.power+delta, 0, f.limit) }
func (f *fakeRegulator) Power() int            { return f.power }

// fakeClock lets tests step through the settle window.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) read() time.Time { return c.now }

func newTestClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSwitchingIncrease(t *testing.T) {
	driver := &fakeSwitch{}
	s := NewSwitching("test", driver, 500, 0)

	if got := s.IncreaseEffectBy(700); got != 500 {
		t.Fatalf("first increase: got %d, want 500", got)
	}
	if driver.ons != 1 || !s.IsActive() {
		t.Fatal("switch not turned on")
	}

	// already on: no further effect until reduced
	if got := s.IncreaseEffectBy(700); got != 0 {
		t.Fatalf("second increase: got %d, want 0", got)
	}

	if got := s.ReduceEffectBy(100); got != 500 {
		t.Fatalf("reduce: got %d, want 500", got)
	}
	if driver.offs != 1 || s.IsActive() {
		t.Fatal("switch not turned off")
	}
	if got := s.IncreaseEffectBy(700); got != 500 {
		t.Fatalf("increase after reduce: got %d, want 500", got)
	}
}

func TestSwitchingRefusesOversizedLoad(t *testing.T) {
	driver := &fakeSwitch{}
	s := NewSwitching("test", driver, 500, 0)

	// a 500 W load must not be engaged for a 300 W deficit
	if got := s.IncreaseEffectBy(300); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	if driver.ons != 0 {
		t.Fatal("switch must stay off")
	}
}

func TestRegulatingIncrease(t *testing.T) {
	driver := &fakeRegulator{limit: 800}
	s := NewRegulating("test", driver, 600, 0)

	if got := s.IncreaseEffectBy(400); got != 400 {
		t.Fatalf("got %d, want 400", got)
	}
	if driver.Power() != 400 {
		t.Fatalf("power: got %d, want 400", driver.Power())
	}

	// only 200 W headroom left against max-watts
	if got := s.IncreaseEffectBy(400); got != 200 {
		t.Fatalf("got %d, want 200", got)
	}

	if got := s.IncreaseEffectBy(100); got != 0 {
		t.Fatalf("saturated regulator: got %d, want 0", got)
	}
}

func TestRegulatingReduce(t *testing.T) {
	driver := &fakeRegulator{limit: 800}
	s := NewRegulating("test", driver, 600, 0)
	s.IncreaseEffectBy(400)

	if got := s.ReduceEffectBy(600); got != 400 {
		t.Fatalf("got %d, want 400", got)
	}
	if driver.Power() != 0 {
		t.Fatalf("power: got %d, want 0", driver.Power())
	}
	if got := s.ReduceEffectBy(100); got != 0 {
		t.Fatalf("inactive regulator: got %d, want 0", got)
	}
}

func TestBusyGate(t *testing.T) {
	clock := newTestClock()
	driver := &fakeSwitch{}
	s := NewSwitching("test", driver, 500, 60*time.Second)
	s.clock = clock.read

	if got := s.IncreaseEffectBy(700); got != 500 {
		t.Fatalf("got %d, want 500", got)
	}

	// inside the settle window both directions are refused
	clock.now = clock.now.Add(time.Second)
	if got := s.ReduceEffectBy(700); got != 0 {
		t.Fatalf("busy reduce: got %d, want 0", got)
	}
	if s.IsActive() != true || driver.offs != 0 {
		t.Fatal("actor state must be unchanged while busy")
	}

	clock.now = clock.now.Add(61 * time.Second)
	if got := s.ReduceEffectBy(700); got != 500 {
		t.Fatalf("reduce after settle: got %d, want 500", got)
	}
}

func TestBusyUntilNeverMovesBackward(t *testing.T) {
	clock := newTestClock()
	s := NewSwitching("test", &fakeSwitch{}, 500, 60*time.Second)
	s.clock = clock.read

	s.IncreaseEffectBy(700)
	until := s.busyUntil

	// a shorter settle window configured later must not shrink an
	// armed gate
	s.settling = 10 * time.Second
	clock.now = clock.now.Add(70 * time.Second)
	s.ReduceEffectBy(700)
	if s.busyUntil.Before(until) {
		t.Fatal("busyUntil moved backward")
	}
}

func TestTurnOff(t *testing.T) {
	swDriver := &fakeSwitch{}
	sw := NewSwitching("sw", swDriver, 500, 60*time.Second)
	sw.TurnOff()
	if swDriver.offs != 1 || sw.IsActive() || sw.IsBusy() {
		t.Fatal("switching actor not forced off")
	}

	regDriver := &fakeRegulator{limit: 800, power: 300}
	reg := NewRegulating("reg", regDriver, 600, 60*time.Second)
	reg.TurnOff()
	if regDriver.Power() != 0 || reg.IsActive() || reg.IsBusy() {
		t.Fatal("regulating actor not forced off")
	}
}

func TestFromConfigUnknownKind(t *testing.T) {
	cfg := configActor("frobnicator")
	if _, err := FromConfig(cfg); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestFromConfigKinds(t *testing.T) {
	for _, kind := range []string{"tasmota", "hs100", "ahoy-dtu", "open-dtu", "ez1m"} {
		if _, err := FromConfig(configActor(kind)); err != nil {
			t.Errorf("kind %s: %v", kind, err)
		}
	}
}
