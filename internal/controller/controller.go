// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package controller turns the stream of net-power samples into actor
// commands. Producers add power to the local bus, consumers take it
// off; the loop engages one side at a time and steers the reading
// toward the middle of the dead-band.
package controller

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/actors"
	"github.com/ClusterCockpit/cc-powerflow/internal/metrics"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
)

type SystemState int

const (
	AllOff SystemState = iota
	Producing
	Consuming
)

func (s SystemState) String() string {
	switch s {
	case Producing:
		return "producing"
	case Consuming:
		return "consuming"
	}
	return "all-off"
}

// Samples stamped further than this in the future are dropped. Meter
// clocks drift; anything beyond a small skew is a replayed or broken
// reading.
const maxClockSkew = 5 * time.Second

type Controller struct {
	producers []*actors.State
	consumers []*actors.State

	lowerLimit int
	upperLimit int
	margin     int

	clock func() time.Time
}

func New(lowerLimit, upperLimit int, producers, consumers []*actors.State) *Controller {
	return &Controller{
		producers:  producers,
		consumers:  consumers,
		lowerLimit: lowerLimit,
		upperLimit: upperLimit,
		margin:     (lowerLimit + upperLimit) / 2,
		clock:      time.Now,
	}
}

// computeSystemState derives the dispatch mode from which actors are
// currently active. Producers and consumers are never engaged at the
// same time, so "any producer active" wins.
func computeSystemState(producers, consumers []*actors.State) SystemState {
	for _, p := range producers {
		if p.IsActive() {
			return Producing
		}
	}
	for _, c := range consumers {
		if c.IsActive() {
			return Consuming
		}
	}
	return AllOff
}

// Run forces every actor off, then dispatches each incoming sample
// until the channel closes or the context is cancelled.
func (c *Controller) Run(ctx context.Context, samples <-chan schema.Sample) {
	if len(c.producers) == 0 && len(c.consumers) == 0 {
		log.Warn("controller: no actors configured, nothing to do")
		return
	}

	for _, a := range c.producers {
		a.TurnOff()
	}
	for _, a := range c.consumers {
		a.TurnOff()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-samples:
			if !ok {
				return
			}
			if sample.Time.After(c.clock().Add(maxClockSkew)) {
				log.Debugf("controller: dropping sample %ds in the future",
					int(sample.Time.Sub(c.clock()).Seconds()))
				metrics.SamplesDropped.Inc()
				continue
			}
			c.Dispatch(int(sample.Watts))
		}
	}
}

// Dispatch runs one control step for a net-power reading.
func (c *Controller) Dispatch(watts int) {
	state := computeSystemState(c.producers, c.consumers)

	switch state {
	case AllOff:
		if watts > c.upperLimit {
			// importing too much, bring producers online
			c.increase(c.producers, watts-c.margin)
		} else if watts < c.lowerLimit {
			// exporting too much, bring consumers online
			c.increase(c.consumers, c.margin-watts)
		}
	case Producing:
		if watts < c.lowerLimit {
			c.reduce(c.producers, c.margin-watts)
		} else if watts > c.upperLimit {
			c.increase(c.producers, watts-c.margin)
		}
	case Consuming:
		if watts > c.upperLimit {
			c.reduce(c.consumers, watts-c.margin)
		} else if watts < c.lowerLimit {
			c.increase(c.consumers, c.margin-watts)
		}
	}
}

// increase walks the list in priority order until the requested watts
// are covered. Busy or saturated actors answer 0 and are skipped.
func (c *Controller) increase(list []*actors.State, delta int) {
	for _, actor := range list {
		if delta <= 0 {
			return
		}
		effect := actor.IncreaseEffectBy(delta)
		if effect > 0 {
			log.Infof("controller: %s up by %d W (%d W to go)", actor.Name(), effect, delta-effect)
			metrics.ActorCommands.Inc()
		}
		delta -= effect
	}
}

// reduce walks the list back to front: the most recently engaged,
// lowest-priority actor is disengaged first.
func (c *Controller) reduce(list []*actors.State, delta int) {
	for i := len(list) - 1; i >= 0; i-- {
		if delta <= 0 {
			return
		}
		effect := list[i].ReduceEffectBy(delta)
		if effect > 0 {
			log.Infof("controller: %s down by %d W (%d W to go)", list[i].Name(), effect, delta-effect)
			metrics.ActorCommands.Inc()
		}
		delta -= effect
	}
}
