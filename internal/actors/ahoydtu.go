// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package actors

import (
	"bytes"
	"encoding/json"

	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
)

// AhoyDTU regulates a Hoymiles inverter through an Ahoy-DTU gateway.
// Command 11 with tx request 81 sets the non-persistent active power
// limit in watts.
type AhoyDTU struct {
	URL             string
	InverterNo      int
	UpperLimitWatts int

	current int
}

type ahoyCtrlPayload struct {
	Inverter  int   `json:"inverter"`
	Cmd       int   `json:"cmd"`
	TxRequest int   `json:"tx_request"`
	Payload   []int `json:"payload"`
}

func (a *AhoyDTU) ChangePower(delta int) {
	target := clamp(a.current+delta, 0, a.UpperLimitWatts)
	a.setAbsolute(target)
	a.current = target
}

func (a *AhoyDTU) Power() int {
	return a.current
}

func (a *AhoyDTU) setAbsolute(watts int) {
	body, err := json.Marshal(ahoyCtrlPayload{
		Inverter:  a.InverterNo,
		Cmd:       11,
		TxRequest: 81,
		Payload:   []int{watts, 0},
	})
	if err != nil {
		log.Errorf("ahoy-dtu: marshal: %s", err.Error())
		return
	}
	u, err := commandURL(a.URL, "/api/ctrl", nil)
	if err != nil {
		log.Errorf("ahoy-dtu: bad url '%s': %s", a.URL, err.Error())
		return
	}
	go func() {
		resp, err := httpClient.Post(u, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Warnf("ahoy-dtu: limit command failed: %s", err.Error())
			return
		}
		resp.Body.Close()
	}()
}
