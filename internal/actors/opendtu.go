// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-powerflow.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package actors

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ClusterCockpit/cc-powerflow/pkg/log"
)

// OpenDTU regulates a Hoymiles inverter through OpenDTU's limit API.
// The endpoint takes a relative limit in percent of the inverter's
// nameplate power, form-urlencoded behind basic auth.
type OpenDTU struct {
	URL             string
	Serial          string
	Password        string
	NameplateWatts  int
	UpperLimitWatts int

	current int
}

type openDTULimit struct {
	Serial     string `json:"serial"`
	LimitType  int    `json:"limit_type"`
	LimitValue int    `json:"limit_value"`
}

func (o *OpenDTU) ChangePower(delta int) {
	target := clamp(o.current+delta, 0, o.UpperLimitWatts)
	o.setAbsolute(target)
	o.current = target
}

func (o *OpenDTU) Power() int {
	return o.current
}

// relativeLimit converts a watt setpoint into the percent value the
// limit API expects.
func relativeLimit(watts, maxWatts int) int {
	return watts * 100 / maxWatts
}

func (o *OpenDTU) setAbsolute(watts int) {
	payload, err := json.Marshal(openDTULimit{
		Serial:     o.Serial,
		LimitType:  1, // relative
		LimitValue: relativeLimit(watts, o.NameplateWatts),
	})
	if err != nil {
		log.Errorf("open-dtu: marshal: %s", err.Error())
		return
	}
	u, err := commandURL(o.URL, "/api/limit/config", nil)
	if err != nil {
		log.Errorf("open-dtu: bad url '%s': %s", o.URL, err.Error())
		return
	}
	form := url.Values{"data": {string(payload)}}

	go func() {
		req, err := http.NewRequest(http.MethodPost, u, strings.NewReader(form.Encode()))
		if err != nil {
			log.Errorf("open-dtu: request: %s", err.Error())
			return
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth("admin", o.Password)

		resp, err := httpClient.Do(req)
		if err != nil {
			log.Warnf("open-dtu: limit command failed: %s", err.Error())
			return
		}
		resp.Body.Close()
	}()
}
