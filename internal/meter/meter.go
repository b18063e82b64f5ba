// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package meter turns the smart-meter input into a stream of watt
// samples. Two adapters exist: the SML adapter reads the optical IR
// head on a serial port, the Modbus adapter polls a holding register.
// Both run until their context is cancelled and reconnect on any
// transport error.
package meter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/datastore"
	"github.com/ClusterCockpit/cc-powerflow/internal/metrics"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
	"github.com/ClusterCockpit/cc-powerflow/pkg/sml"
)

// Source is a meter adapter pushing samples into out until ctx is
// cancelled.
type Source interface {
	Run(ctx context.Context, out chan<- schema.Sample)
}

// SampleSink receives every accepted sample (the InfluxDB export).
type SampleSink interface {
	Write(schema.Sample)
}

// push never blocks the adapter: a stalled consumer loses samples, not
// readings.
func push(out chan<- schema.Sample, s schema.Sample) {
	select {
	case out <- s:
	default:
		metrics.SamplesDropped.Inc()
		log.Debug("meter: sample channel full, dropping")
	}
}

// Pump fans the meter stream out to the store, the optional sink and
// the control loop. It closes out when the input closes so the
// controller winds down with the meter.
func Pump(ctx context.Context, in <-chan schema.Sample, store *datastore.Store, sink SampleSink, out chan<- schema.Sample) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-in:
			if !ok {
				return
			}
			metrics.SamplesReceived.Inc()
			metrics.NetPower.Set(float64(s.Watts))
			store.Put(s)
			metrics.StoreSize.Set(float64(store.Len()))
			if sink != nil {
				sink.Write(s)
			}
			push(out, s)
		}
	}
}

// findWatts extracts the scaled reading of one OBIS quantity from a
// list response, narrowed to int32.
func findWatts(entries []sml.ListEntry, name sml.OBIS) (int32, bool) {
	for i := range entries {
		obis, ok := entries[i].OBIS()
		if !ok || obis != name {
			continue
		}
		return entries[i].ScaledValue().Watts()
	}
	return 0, false
}

// sleepCtx waits, but returns early on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
