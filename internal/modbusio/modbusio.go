// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package modbusio opens goburrow Modbus handlers from the shared
// connection config used by the meter adapter and the Modbus actors.
package modbusio

import (
	"fmt"
	"time"

	"github.com/ClusterCockpit/cc-powerflow/internal/config"
	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
	"github.com/goburrow/modbus"
)

// Handler is the common surface of goburrow's TCP and RTU handlers.
type Handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// NewHandler builds an unconnected handler for the given connection.
// The caller owns Connect/Close.
func NewHandler(cfg *config.ModbusConnConfig, slaveID byte, timeout time.Duration) (Handler, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("modbusio: no connection configured")
	case cfg.TCP != "":
		h := modbus.NewTCPClientHandler(cfg.TCP)
		h.SlaveId = slaveID
		h.Timeout = timeout
		return h, nil
	case cfg.RTU != nil:
		h := modbus.NewRTUClientHandler(cfg.RTU.Device)
		h.SlaveId = slaveID
		h.Timeout = timeout
		h.BaudRate = cfg.RTU.BaudRate
		h.DataBits = 8
		h.Parity = parity(cfg.RTU.Parity)
		h.StopBits = stopBits(cfg.RTU.StopBits)
		if cfg.RTU.FlowControl != "" && cfg.RTU.FlowControl != "none" {
			// The serial backend only does raw lines.
			log.Warnf("modbusio: flow control '%s' not supported, using none", cfg.RTU.FlowControl)
		}
		return h, nil
	}
	return nil, fmt.Errorf("modbusio: connection needs either 'tcp' or 'rtu'")
}

func parity(s string) string {
	switch s {
	case "odd":
		return "O"
	case "even", "":
		return "E"
	}
	return "E"
}

func stopBits(s string) int {
	if s == "two" {
		return 2
	}
	return 1
}
