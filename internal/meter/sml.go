// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package meter

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/metrics"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
	"github.com/ClusterCockpit/cc-powerflow/pkg/sml"
	"go.bug.st/serial"
)

// SMLSource reads SML telegrams from the optical IR head. The meter
// pushes unsolicited; we only ever read.
type SMLSource struct {
	Device      string
	ActivePower sml.OBIS

	// Updated with every list response.
	Snapshot *Snapshot

	// Optional observer for every list response (MQTT publications).
	OnList func(entries []sml.ListEntry)
}

func (s *SMLSource) Run(ctx context.Context, out chan<- schema.Sample) {
	mode := &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	for ctx.Err() == nil {
		port, err := serial.Open(s.Device, mode)
		if err != nil {
			log.Errorf("meter: open %s: %s", s.Device, err.Error())
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		// Unblock the pending read when we are told to stop.
		stop := context.AfterFunc(ctx, func() { port.Close() })

		framer := sml.NewFramer(port)
		for {
			frame, err := framer.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Warnf("meter: read %s: %s", s.Device, err.Error())
				}
				break
			}
			msgs, err := sml.Parse(frame)
			if err != nil {
				metrics.ParseRejects.Inc()
				log.Debug("meter: discarding malformed frame")
				continue
			}
			s.handle(msgs, out)
		}

		stop()
		port.Close()
		sleepCtx(ctx, 2*time.Second)
	}
}

func (s *SMLSource) handle(msgs []sml.Envelope, out chan<- schema.Sample) {
	for _, msg := range msgs {
		list, ok := msg.(sml.ListResponse)
		if !ok {
			continue
		}
		if s.Snapshot != nil {
			s.Snapshot.Update(list.Entries)
		}
		if s.OnList != nil {
			s.OnList(list.Entries)
		}
		if watts, ok := findWatts(list.Entries, s.ActivePower); ok {
			push(out, schema.Sample{Time: time.Now(), Watts: watts})
		}
	}
}
