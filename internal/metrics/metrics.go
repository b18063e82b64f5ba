// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics holds the Prometheus instrumentation served on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SamplesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerflow_samples_received_total",
		Help: "Watt samples received from the meter.",
	})
	SamplesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerflow_samples_dropped_total",
		Help: "Samples dropped by the clock-skew guard or channel overflow.",
	})
	ParseRejects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerflow_sml_parse_rejects_total",
		Help: "SML frames rejected by the decoder.",
	})
	ActorCommands = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerflow_actor_commands_total",
		Help: "Commands issued to actors.",
	})
	NetPower = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powerflow_net_power_watts",
		Help: "Last net power reading. Positive is grid import.",
	})
	StoreSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powerflow_store_samples",
		Help: "Samples currently held in the retention window.",
	})
)

func init() {
	prometheus.MustRegister(
		SamplesReceived,
		SamplesDropped,
		ParseRejects,
		ActorCommands,
		NetPower,
		StoreSize,
	)
}
