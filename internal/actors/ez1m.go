// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package actors

import (
	"net/url"
	"strconv"

	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
)

// Regulating below this makes the EZ1-M oscillate; turn it off instead.
const ez1mMinWatts = 30

// EZ1M regulates an APsystems EZ1-M microinverter over its local REST
// API. The inverter has two inputs, so the device limit is set to
// twice the per-input target. status=1 is off, status=0 is on.
type EZ1M struct {
	URL             string
	UpperLimitWatts int

	current int
}

func (e *EZ1M) ChangePower(delta int) {
	target := clamp(e.current+delta, 0, e.UpperLimitWatts)
	e.current = target
	if target < ez1mMinWatts {
		e.get("/setOnOff", url.Values{"status": {"1"}})
		return
	}
	e.get("/setOnOff", url.Values{"status": {"0"}})
	e.get("/setMaxPower", url.Values{"p": {strconv.Itoa(2 * target)}})
}

func (e *EZ1M) Power() int {
	return e.current
}

func (e *EZ1M) get(path string, query url.Values) {
	u, err := commandURL(e.URL, path, query)
	if err != nil {
		log.Errorf("ez1m: bad url '%s': %s", e.URL, err.Error())
		return
	}
	go func() {
		resp, err := httpClient.Get(u)
		if err != nil {
			log.Warnf("ez1m: command failed: %s", err.Error())
			return
		}
		resp.Body.Close()
	}()
}
