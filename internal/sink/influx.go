// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sink exports accepted samples to InfluxDB for long-term
// analysis; the in-memory store only keeps a week.
package sink

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/ClusterCockpit/cc-powerflow/internal/config"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
)

type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	meter    string
}

func New(cfg *config.InfluxConfig) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	meter := cfg.Meter
	if meter == "" {
		meter = "grid"
	}

	// The write API batches in the background and reports failures on
	// a channel. A dead InfluxDB must not affect the pipeline.
	go func() {
		for err := range writeAPI.Errors() {
			log.Warnf("sink: influx write: %s", err.Error())
		}
	}()

	return &InfluxSink{client: client, writeAPI: writeAPI, meter: meter}
}

func (s *InfluxSink) Write(sample schema.Sample) {
	s.writeAPI.WritePoint(influxdb2.NewPoint("power",
		map[string]string{"meter": s.meter},
		map[string]interface{}{"watts": int64(sample.Watts)},
		sample.Time))
}

func (s *InfluxSink) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}
