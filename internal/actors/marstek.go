// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package actors

import (
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/config"
	"github.com/ClusterCockpit/cc-powerflow/internal/modbusio"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/goburrow/modbus"
)

// Marstek Venus force-mode registers.
const (
	marstekRegState          = 0xa41a
	marstekRegChargeWatts    = 0xa424
	marstekRegDischargeWatts = 0xa425

	marstekStateCharge    = 1
	marstekStateDischarge = 2
)

// Marstek regulates a Marstek Venus battery over Modbus. Charging is a
// consumer, discharging a producer; both are the same register block,
// selected by the discharge flag. A connection is established per
// command, matching the battery's single-client RS485 bridge.
type Marstek struct {
	Conn            *config.ModbusConnConfig
	UpperLimitWatts int

	discharge bool
	current   int
}

func (m *Marstek) ChangePower(delta int) {
	target := clamp(m.current+delta, 0, m.UpperLimitWatts)
	m.current = target

	state, reg := uint16(marstekStateCharge), uint16(marstekRegChargeWatts)
	if m.discharge {
		state, reg = marstekStateDischarge, marstekRegDischargeWatts
	}
	go m.write(state, reg, uint16(target))
}

func (m *Marstek) Power() int {
	return m.current
}

func (m *Marstek) write(state, reg, watts uint16) {
	handler, err := modbusio.NewHandler(m.Conn, 1, 5*time.Second)
	if err != nil {
		log.Errorf("marstek: %s", err.Error())
		return
	}
	if err := handler.Connect(); err != nil {
		log.Warnf("marstek: connect: %s", err.Error())
		return
	}
	defer handler.Close()

	client := modbus.NewClient(handler)
	if _, err := client.WriteSingleRegister(marstekRegState, state); err != nil {
		log.Warnf("marstek: set state: %s", err.Error())
		return
	}
	if _, err := client.WriteSingleRegister(reg, watts); err != nil {
		log.Warnf("marstek: set power: %s", err.Error())
	}
}
