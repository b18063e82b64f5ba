// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package meter

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/config"
	"github.com/ClusterCockpit/cc-powerflow/internal/modbusio"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/ClusterCockpit/cc-powerflow/pkg/schema"
	"github.com/goburrow/modbus"
)

// ModbusSource polls one holding register holding the signed net
// power. On timeout or I/O error the connection is dropped and
// re-established; the poll loop never gives up.
type ModbusSource struct {
	Conn         *config.ModbusConnConfig
	Register     uint16
	PollInterval time.Duration
}

func (m *ModbusSource) Run(ctx context.Context, out chan<- schema.Sample) {
	for ctx.Err() == nil {
		handler, err := modbusio.NewHandler(m.Conn, 1, 5*time.Second)
		if err != nil {
			// connection config is wrong, retrying won't help
			log.Errorf("meter: %s", err.Error())
			return
		}
		if err := handler.Connect(); err != nil {
			log.Warnf("meter: modbus connect: %s", err.Error())
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		client := modbus.NewClient(handler)
		for ctx.Err() == nil {
			raw, err := client.ReadHoldingRegisters(m.Register, 1)
			if err != nil || len(raw) < 2 {
				log.Warnf("meter: modbus read: %v", err)
				break
			}
			push(out, schema.Sample{Time: time.Now(), Watts: decodeRegister(raw)})
			sleepCtx(ctx, m.PollInterval)
		}

		handler.Close()
		sleepCtx(ctx, time.Second)
	}
}

// decodeRegister interprets the register as signed 16-bit; meters
// report export as negative values.
func decodeRegister(raw []byte) int32 {
	return int32(int16(binary.BigEndian.Uint16(raw)))
}
